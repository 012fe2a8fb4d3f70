// Package api defines the public contracts of hioload-reactor: channel
// handles, interest sets, readiness events, the logic handler callback
// interface and the reactor surface exposed to it.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package api
