// Package mcp exposes the storefront as a Model Context Protocol server so
// an agent can browse the catalog and chat on a user's behalf.
package mcp
