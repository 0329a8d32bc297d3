/*
Package session implements per-user session management.

Sessions live only as long as the process. The Manager guarantees that events
for the same identity are processed one at a time (a per-identity lock that is
reference counted and released when idle) while different identities run in
parallel.
*/
package session
