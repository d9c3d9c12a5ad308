package migrations

func init() {
	Migrations.MustRegister(execFile("create_users.up.sql"), dropTables("users"))
}
