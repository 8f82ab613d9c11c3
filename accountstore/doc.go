// Package accountstore implements goAccount.AccountStore over PostgreSQL,
// SQLite and process memory.
//
// The SQL stores own their schema through embedded goose migrations and map
// backend uniqueness violations to goAccount.ErrStoreDuplicateEmail, so a
// concurrent insert for the same email never leaves two rows behind.
package accountstore
