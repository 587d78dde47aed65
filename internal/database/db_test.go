package database_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iliyamo/project-ranking/internal/database"
)

var _ = Describe("ParseDSN", func() {
	DescribeTable("picks the driver from the connection string",
		func(raw string, want database.Dialect) {
			got, _, err := database.ParseDSN(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("postgres scheme", "postgres://u:p@localhost:5432/app", database.Postgres),
		Entry("postgresql scheme", "postgresql://localhost/app?sslmode=disable", database.Postgres),
		Entry("sqlite scheme", "sqlite:///var/lib/app.db", database.SQLite),
		Entry("sqlite file uri", "file:app.db?cache=shared", database.SQLite),
		Entry("in-memory sqlite", ":memory:", database.SQLite),
		Entry("mysql scheme", "mysql://root:pw@tcp(127.0.0.1:3306)/app", database.MySQL),
		Entry("bare mysql dsn", "root@tcp(db:3306)/app", database.MySQL),
	)

	It("rejects an empty string", func() {
		_, _, err := database.ParseDSN("  ")
		Expect(err).To(MatchError(database.ErrEmptyDSN))
	})

	It("rejects an unparsable mysql dsn", func() {
		_, _, err := database.ParseDSN("not a dsn")
		Expect(err).To(HaveOccurred())
	})

	It("forces parseTime, UTC and found-rows on mysql", func() {
		_, dsn, err := database.ParseDSN("mysql://root:pw@tcp(127.0.0.1:3306)/app")
		Expect(err).NotTo(HaveOccurred())
		Expect(dsn).To(HavePrefix("root:pw@tcp(127.0.0.1:3306)/app?"))
		Expect(dsn).To(ContainSubstring("parseTime=true"))
		Expect(dsn).To(ContainSubstring("clientFoundRows=true"))
		Expect(dsn).NotTo(ContainSubstring("mysql://"))
	})

	It("strips the sqlite scheme and sets the time format", func() {
		_, dsn, err := database.ParseDSN("sqlite:///tmp/app.db")
		Expect(err).NotTo(HaveOccurred())
		Expect(dsn).To(Equal("/tmp/app.db?_time_format=sqlite"))

		_, dsn, err = database.ParseDSN("file:app.db?cache=shared")
		Expect(err).NotTo(HaveOccurred())
		Expect(dsn).To(Equal("file:app.db?cache=shared&_time_format=sqlite"))
	})

	It("passes postgres urls through untouched", func() {
		raw := "postgres://u:p@localhost:5432/app?sslmode=disable"
		_, dsn, err := database.ParseDSN(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(dsn).To(Equal(raw))
	})
})

var _ = Describe("DB", func() {
	Describe("Rebind", func() {
		It("numbers placeholders for postgres", func() {
			db := &database.DB{Dialect: database.Postgres}
			Expect(db.Rebind("UPDATE projects SET score = score + ? WHERE id = ?")).
				To(Equal("UPDATE projects SET score = score + $1 WHERE id = $2"))
		})

		It("leaves other dialects alone", func() {
			q := "SELECT * FROM projects WHERE id = ?"
			Expect((&database.DB{Dialect: database.MySQL}).Rebind(q)).To(Equal(q))
			Expect((&database.DB{Dialect: database.SQLite}).Rebind(q)).To(Equal(q))
		})
	})

	Describe("Open", func() {
		It("opens an in-memory sqlite database", func() {
			db, err := database.Open("sqlite://:memory:")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(db.Close)
			Expect(db.Dialect).To(Equal(database.SQLite))

			_, err = db.Exec("CREATE TABLE t (v INTEGER)")
			Expect(err).NotTo(HaveOccurred())
			// single connection: the table is visible to the next query
			var n int
			Expect(db.QueryRow("SELECT COUNT(*) FROM t").Scan(&n)).To(Succeed())
			Expect(n).To(BeZero())
		})

		It("fails fast on an empty connection string", func() {
			_, err := database.Open("")
			Expect(err).To(MatchError(database.ErrEmptyDSN))
		})

		It("reports ping failures with the dialect", func() {
			_, err := database.Open("root@tcp(127.0.0.1:1)/app?timeout=200ms")
			Expect(err).To(HaveOccurred())
			Expect(strings.HasPrefix(err.Error(), "ping mysql")).To(BeTrue())
		})
	})
})
