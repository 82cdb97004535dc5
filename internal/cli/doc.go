// Package cli is the interactive front-end of learnkeeper.
//
// The REPL reads one command per line. What is available depends on the
// session: logged out users can register and log in, students can record
// quiz results and delete their own account, admins additionally manage
// users and read reports. Reports never show usernames; records appear as
// "User N".
//
// Leaving the REPL while logged in ends the session, which adds the elapsed
// time to the user's record.
package cli
