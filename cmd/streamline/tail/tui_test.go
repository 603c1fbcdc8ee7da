package tailcmder

import (
	"fmt"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/streamline/pkg/tail"
)

func keyPress(k string) bubbletea.KeyMsg {
	return bubbletea.KeyMsg{Type: bubbletea.KeyRunes, Runes: []rune(k)}
}

var _ = Describe("Tail TUI", func() {
	var m *tailModel

	send := func(msgs ...bubbletea.Msg) bubbletea.Cmd {
		var cmd bubbletea.Cmd
		for _, msg := range msgs {
			_, cmd = m.Update(msg)
		}
		return cmd
	}

	appendLines := func(from, to int) {
		for i := from; i < to; i++ {
			send(lineMsg(fmt.Sprintf("line %d", i)))
		}
	}

	BeforeEach(func() {
		m = newTailModel("http://localhost:8080/api/log", 50)
		// 10 rows of chrome-free viewport.
		send(bubbletea.WindowSizeMsg{Width: 80, Height: 10 + chromeHeight})
	})

	It("follows new lines while at the bottom", func() {
		appendLines(0, 30)

		Expect(m.view.AtBottom()).To(BeTrue())
		Expect(ansi.Strip(m.view.View())).To(ContainSubstring("line 29"))
		Expect(ansi.Strip(m.view.View())).NotTo(ContainSubstring("line 0\n"))
	})

	It("keeps a reader scrolled into history in place", func() {
		appendLines(0, 30)
		send(keyPress("g"))
		Expect(m.view.YOffset).To(Equal(0))

		appendLines(30, 35)

		Expect(m.view.YOffset).To(Equal(0))
		Expect(m.log.Buffer().Len()).To(Equal(35))
	})

	It("still follows within the bottom tolerance", func() {
		appendLines(0, 30)
		send(keyPress("k"))
		Expect(m.view.AtBottom()).To(BeFalse())

		appendLines(30, 31)

		Expect(m.view.AtBottom()).To(BeTrue())
	})

	It("bounds the scrollback to its capacity", func() {
		appendLines(0, 120)

		Expect(m.log.Buffer().Len()).To(Equal(50))
		Expect(m.log.Buffer().Lines()[0]).To(Equal("line 70"))
		Expect(ansi.Strip(m.View())).To(ContainSubstring("50/50 lines"))
	})

	It("pauses and resumes following", func() {
		appendLines(0, 30)
		send(keyPress("f"))
		Expect(ansi.Strip(m.View())).To(ContainSubstring("PAUSED"))

		appendLines(30, 40)
		Expect(m.view.AtBottom()).To(BeFalse())

		send(keyPress("f"))
		Expect(m.view.AtBottom()).To(BeTrue())
		Expect(ansi.Strip(m.View())).NotTo(ContainSubstring("PAUSED"))
	})

	It("jumps to the bottom and resumes following on G", func() {
		appendLines(0, 30)
		send(keyPress("f"), keyPress("g"))

		send(keyPress("G"))
		Expect(m.follow).To(BeTrue())
		Expect(m.view.AtBottom()).To(BeTrue())
	})

	It("shows the subscription state", func() {
		Expect(ansi.Strip(m.View())).To(ContainSubstring("connecting"))

		send(stateMsg{state: tail.Connected})
		Expect(ansi.Strip(m.View())).To(ContainSubstring("● connected"))

		send(stateMsg{state: tail.Retrying, failures: 2})
		Expect(ansi.Strip(m.View())).To(ContainSubstring("reconnecting (2 lost)"))
	})

	It("keeps lines that arrive before the first resize", func() {
		m = newTailModel("t", 10)
		send(lineMsg("early"), bubbletea.WindowSizeMsg{Width: 40, Height: 6})

		Expect(ansi.Strip(m.view.View())).To(ContainSubstring("early"))
	})

	It("quits on q and ctrl+c", func() {
		cmd := send(keyPress("q"))
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(bubbletea.QuitMsg{}))

		cmd = send(bubbletea.KeyMsg{Type: bubbletea.KeyCtrlC})
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(bubbletea.QuitMsg{}))
	})
})
