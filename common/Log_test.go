package common_test

import (
	"bantay/common"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

var _ = Describe("Log", func() {
	Describe("DefaultFieldsHook", func() {
		It("should stamp service identity onto every entry", func() {
			hook := &common.DefaultFieldsHook{}
			Expect(hook.Levels()).To(Equal(logrus.AllLevels))

			entry := logrus.NewEntry(common.Log)
			entry.Data = logrus.Fields{}
			Expect(hook.Fire(entry)).To(BeNil())
			Expect(entry.Data["serviceName"]).To(Equal(common.GetServiceName()))
			Expect(entry.Data["serviceInstance"]).To(Equal(common.GetServiceInstance()))
		})
	})
})
