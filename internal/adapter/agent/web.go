package agent

import _ "embed"

// Script is the in-browser capture agent. It implements the same
// idle/requesting/delivering/done lifecycle as Agent over
// navigator.geolocation and posts wire payloads back through the gateway.
//
//go:embed web/agent.js
var Script []byte
