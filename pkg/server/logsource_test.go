package server

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FileSource", func() {
	var (
		dir    string
		path   string
		ctx    context.Context
		cancel context.CancelFunc
	)

	appendTo := func(text string) {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
		Expect(err).NotTo(HaveOccurred())
		_, err = f.WriteString(text)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Close()).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "logsource-test-*")
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(dir, "app.log")
		Expect(os.WriteFile(path, []byte("old line\n"), 0o600)).To(Succeed())

		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		os.RemoveAll(dir)
	})

	It("fails when the file is missing", func() {
		_, err := NewFileSource(filepath.Join(dir, "missing.log"), nil).Follow(ctx)
		Expect(err).To(HaveOccurred())
	})

	It("delivers lines appended after Follow, not earlier ones", func() {
		lines, err := NewFileSource(path, nil).Follow(ctx)
		Expect(err).NotTo(HaveOccurred())

		appendTo("first\r\n\nthird\n")

		Eventually(lines).Should(Receive(Equal("first")))
		Eventually(lines).Should(Receive(Equal("")))
		Eventually(lines).Should(Receive(Equal("third")))
	})

	It("holds a partial line until it is terminated", func() {
		lines, err := NewFileSource(path, nil).Follow(ctx)
		Expect(err).NotTo(HaveOccurred())

		appendTo("hal")
		Consistently(lines, 100*time.Millisecond).ShouldNot(Receive())

		appendTo("f\n")
		Eventually(lines).Should(Receive(Equal("half")))
	})

	It("starts over when the file is truncated", func() {
		lines, err := NewFileSource(path, nil).Follow(ctx)
		Expect(err).NotTo(HaveOccurred())

		appendTo("before truncate\n")
		Eventually(lines).Should(Receive(Equal("before truncate")))

		Expect(os.WriteFile(path, []byte("after\n"), 0o600)).To(Succeed())
		Eventually(lines).Should(Receive(Equal("after")))
	})

	It("closes the channel when the context ends", func() {
		lines, err := NewFileSource(path, nil).Follow(ctx)
		Expect(err).NotTo(HaveOccurred())

		cancel()
		Eventually(lines).Should(BeClosed())
	})
})
