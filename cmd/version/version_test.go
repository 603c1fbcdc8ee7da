package versioncmder_test

import (
	"bytes"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/streamline/cmd/version"
	"github.com/papercomputeco/streamline/pkg/utils"
)

var _ = Describe("NewVersionCmd", func() {
	run := func(args ...string) string {
		cmd := versioncmder.NewVersionCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs(args)
		Expect(cmd.Execute()).To(Succeed())
		return ansi.Strip(out.String())
	}

	It("prints version, sha and build time", func() {
		out := run()
		Expect(out).To(ContainSubstring("Version: " + utils.Version))
		Expect(out).To(ContainSubstring("Sha: " + utils.Sha))
		Expect(out).To(ContainSubstring("Built at: " + utils.Buildtime))
	})

	It("prints only the version with --short", func() {
		Expect(run("--short")).To(Equal(utils.Version + "\n"))
	})

	It("rejects positional arguments", func() {
		cmd := versioncmder.NewVersionCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"extra"})
		Expect(cmd.Execute()).To(HaveOccurred())
	})
})
