// Package dispatch selects and runs one invocation variant of the tox test
// orchestrator for CI.
//
// The mode is derived once from TOXENV by the caller (see ModeFor) and passed in
// explicitly. Coverage mode runs the tool bare so its own configuration decides
// what is measured. Standard mode adds the markdown-report flags, forwards the
// caller's arguments verbatim and always ends with the "empty" marker target.
// The dispatcher exits with whatever the tool exits with.
package dispatch
