// Package identity manages the roster of Instagram accounts used by the
// fetch stage.
//
// A roster is loaded once from a YAML file, validated eagerly, and never
// mutated afterwards. Usernames are routed to identities positionally
// (ordinal mod roster size), which keeps the fetch stage lock-free and
// makes routing reproducible across runs. TOTP codes for accounts with
// two-factor authentication are generated at dispatch time via
// Identity.LiveOTP, never cached.
package identity
