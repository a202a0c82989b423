package notify_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/notify"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctx    context.Context
		sender *mockSender
		d      *notify.Dispatcher
	)

	BeforeEach(func() {
		ctx = context.Background()
		sender = &mockSender{}
		d = notify.NewDispatcher(sender, 2)
	})

	It("sends one message per subscriber covering each of their repositories", func() {
		report := d.NotifyNewIssues(ctx,
			model.SubscriberRepos{
				"100": {"octo/hello", "octo/world"},
				"200": {"octo/world"},
			},
			model.Snapshot{
				"octo/hello": {"Fix <bug>"},
				"octo/world": {"Add docs", "Add tests"},
			},
		)

		Expect(report.Sent).To(Equal(2))
		Expect(report.Failed).To(BeEmpty())

		sent := sender.byChat()
		Expect(sent).To(HaveLen(2))
		Expect(sent["100"]).To(ContainSubstring("There are new issues in octo/hello!\n<blockquote>Fix &lt;bug&gt;</blockquote>"))
		Expect(sent["100"]).To(ContainSubstring("There are new issues in octo/world!\n<blockquote>Add docs</blockquote><blockquote>Add tests</blockquote>"))
		Expect(sent["200"]).NotTo(ContainSubstring("octo/hello"))
	})

	It("isolates a failing recipient", func() {
		sender.sendFn = func(_ context.Context, chatID, _ string) error {
			if chatID == "100" {
				return errors.New("bot was blocked by the user")
			}
			return nil
		}

		report := d.NotifyNewIssues(ctx,
			model.SubscriberRepos{
				"100": {"octo/hello"},
				"200": {"octo/hello"},
				"300": {"octo/hello"},
			},
			model.Snapshot{"octo/hello": {"A"}},
		)

		Expect(report.Sent).To(Equal(2))
		Expect(report.Failed).To(HaveKey("100"))
		Expect(sender.byChat()).To(HaveKey("200"))
		Expect(sender.byChat()).To(HaveKey("300"))
	})

	It("splits a digest over the message length limit between titles", func() {
		titles := make([]string, 60)
		for i := range titles {
			titles[i] = fmt.Sprintf("%03d %s", i, strings.Repeat("é", 200))
		}

		report := d.NotifyNewIssues(ctx,
			model.SubscriberRepos{"100": {"octo/hello", "octo/world"}},
			model.Snapshot{"octo/hello": titles, "octo/world": {"Small"}},
		)

		Expect(report.Sent).To(Equal(1))
		Expect(len(sender.sent)).To(BeNumerically(">", 1))

		var all strings.Builder
		for _, m := range sender.sent {
			Expect(m.chatID).To(Equal("100"))
			Expect(len(utf16.Encode([]rune(m.text)))).To(BeNumerically("<=", notify.MaxMessageLength))
			Expect(m.text).To(HavePrefix("There are new issues in "))
			all.WriteString(m.text)
		}
		for _, title := range titles {
			Expect(strings.Count(all.String(), "<blockquote>"+title+"</blockquote>")).To(Equal(1))
		}
		Expect(sender.sent[len(sender.sent)-1].text).To(ContainSubstring("<blockquote>Small</blockquote>"))
	})

	It("stops a recipient's remaining parts after a failed part", func() {
		attempts := 0
		sender.sendFn = func(context.Context, string, string) error {
			attempts++
			return errors.New("Too Many Requests: retry after 3")
		}

		report := d.NotifyNewIssues(ctx,
			model.SubscriberRepos{"100": {"octo/hello"}},
			model.Snapshot{"octo/hello": {strings.Repeat("a", 3000), strings.Repeat("b", 3000)}},
		)

		Expect(report.Sent).To(BeZero())
		Expect(report.Failed).To(HaveKey("100"))
		Expect(attempts).To(Equal(1))
	})

	It("skips subscribers without new titles", func() {
		report := d.NotifyNewIssues(ctx,
			model.SubscriberRepos{"100": {"octo/quiet"}},
			model.Snapshot{"octo/hello": {"A"}},
		)

		Expect(report.Sent).To(BeZero())
		Expect(report.Skipped).To(Equal(1))
		Expect(sender.byChat()).To(BeEmpty())
	})
})
