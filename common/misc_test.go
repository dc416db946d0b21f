package common_test

import (
	"os"

	"bantay/common"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Misc", func() {
	Describe("GetServiceName", func() {
		It("should fall back to the default name", func() {
			Expect(os.Unsetenv("SERVICE_NAME")).To(BeNil())
			Expect(common.GetServiceName()).To(Equal("bantay"))
		})

		It("should prefer the SERVICE_NAME environment variable", func() {
			Expect(os.Setenv("SERVICE_NAME", "bantay-staging")).To(BeNil())
			defer os.Unsetenv("SERVICE_NAME")
			Expect(common.GetServiceName()).To(Equal("bantay-staging"))
		})
	})

	Describe("GetServiceInstance", func() {
		It("should report the hostname", func() {
			hostname, err := os.Hostname()
			Expect(err).To(BeNil())
			Expect(common.GetServiceInstance()).To(Equal(hostname))
		})
	})
})
