// Package store owns the SQLite data file that backs tasklist.
//
// It opens the database through gorm with the pure-Go glebarez/sqlite
// driver, migrates the User and Task tables, and exposes the data file
// path so the backup job can archive it.
package store
