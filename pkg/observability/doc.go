/*
Package observability provides the ways to watch an editor at work.

It includes a rename event Bus that fans notifications out to subscribers,
Prometheus metrics fed by lifecycle hooks, and hooks that write structured logs
for every command and stage change.
*/
package observability
