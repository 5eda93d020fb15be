// Package cli provides the interactive blogkeeper command-line client.
//
// NewApp wires configuration, the record and local stores, the session
// manager and the post service. App.Run restores the session cached on this
// device (only if the record store still considers it active) and then runs
// a REPL until the user exits.
//
// Commands:
//   - register, login, logout, whoami
//   - profile, passwd, sessions
//   - posts [n], myposts, show <id>
//   - newpost, editpost <id>, delpost <id>
//   - summarize [id]
//
// Passwords are read from the terminal without echo.
package cli
