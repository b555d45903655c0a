// Package apportion implements the Sainte-Laguë (Webster) divisor method for
// distributing a fixed number of seats across parties in proportion to their
// votes.
//
// Seats are awarded one at a time to the party with the highest quotient
// votes / divisor, where a party's divisor runs through the odd numbers
// 1, 3, 5, ... as it collects seats. The modified variant replaces the first
// divisor with 0.5. Equal quotients are resolved in favour of the party with
// the lowest index, so every call is reproducible.
package apportion
