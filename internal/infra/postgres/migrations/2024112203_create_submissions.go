package migrations

func init() {
	Migrations.MustRegister(execFile("create_submissions.up.sql"), dropTables("submissions"))
}
