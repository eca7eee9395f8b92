// Package preview implements author mode: it builds a documentation tree,
// serves the HTML output and rebuilds it whenever a source file changes.
//
// The browser learns about a new build through one of three reload
// strategies. The browser strategy drives a browser over the DevTools
// protocol and reloads the page directly. The pool strategy writes the build
// time into a .dev-pool file that an injected script polls. The sse strategy
// pushes an event to an injected EventSource client.
package preview
