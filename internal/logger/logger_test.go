package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/project-ranking/internal/logger"
)

var _ = Describe("Logger", func() {
	var saved zerolog.Logger

	BeforeEach(func() {
		saved = log.Logger
		level := zerolog.GlobalLevel()
		DeferCleanup(func() {
			log.Logger = saved
			zerolog.SetGlobalLevel(level)
		})
	})

	DescribeTable("ParseLevel",
		func(in string, want zerolog.Level) {
			Expect(logger.ParseLevel(in)).To(Equal(want))
		},
		Entry("debug", "debug", zerolog.DebugLevel),
		Entry("upper case warn", "WARN", zerolog.WarnLevel),
		Entry("error", "error", zerolog.ErrorLevel),
		Entry("info", "info", zerolog.InfoLevel),
		Entry("unknown falls back to info", "verbose", zerolog.InfoLevel),
	)

	It("writes JSON with the environment outside dev", func() {
		var buf bytes.Buffer
		logger.InitWithWriter(&buf, "info", "prod")
		log.Info().Str("k", "v").Msg("hello")

		var line map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &line)).To(Succeed())
		Expect(line).To(HaveKeyWithValue("message", "hello"))
		Expect(line).To(HaveKeyWithValue("environment", "prod"))
		Expect(line).To(HaveKeyWithValue("k", "v"))
		Expect(line).To(HaveKey("time"))
	})

	It("drops records below the configured level", func() {
		var buf bytes.Buffer
		logger.InitWithWriter(&buf, "warn", "prod")
		log.Info().Msg("quiet")
		Expect(buf.Len()).To(BeZero())
		log.Warn().Msg("loud")
		Expect(buf.String()).To(ContainSubstring("loud"))
	})

	It("uses the console format in dev", func() {
		var buf bytes.Buffer
		logger.InitWithWriter(&buf, "debug", "dev")
		log.Debug().Msg("pretty")
		Expect(buf.String()).To(ContainSubstring("pretty"))
		Expect(json.Valid(bytes.TrimSpace(buf.Bytes()))).To(BeFalse())
	})
})
