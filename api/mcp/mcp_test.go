package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dialpoint/memline/api/mcp"
	"github.com/dialpoint/memline/pkg/logger"
	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/storage/inmemory"
)

var _ = Describe("MCP Server", func() {
	var (
		server   *mcp.Server
		memories *memory.Service
	)

	BeforeEach(func() {
		log := logger.Nop()
		memories = memory.NewService(inmemory.NewDriver(), log)

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Memories: memories,
			Logger:   log,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when memory service is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Logger: logger.Nop(),
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("memory service is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Memories: memories,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a server with valid config", func() {
			Expect(server).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			handler := server.Handler()
			Expect(handler).NotTo(BeNil())
		})

		It("skips validation in noop mode", func() {
			s, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s).NotTo(BeNil())
		})
	})
})
