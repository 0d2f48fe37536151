// Package backup archives the SQLite data file and mails it offsite.
//
// A Job runs through Idle, Running and then Success or Failed before
// returning to Idle. Each step failure ends the run; there is no retry until
// the next trigger. Run never returns an error: every failure, including a
// panic, becomes an Outcome that is logged and counted.
//
// Mail credentials are read from the environment on every run so they can be
// rotated without a restart:
//
//	MAIL_USERNAME     sender address and SMTP user
//	MAIL_PASSWORD     SMTP password or app password
//	MAIL_DESTINATION  recipient address
//
// The job reads the data file while the server may be writing it. No lock or
// snapshot is taken, so an archive can capture a half-written page.
package backup
