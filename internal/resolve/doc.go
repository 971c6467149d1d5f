// Package resolve matches runs of search tokens against knowledgebase
// categories through an oracle.Oracle.
//
// A Resolver never sees raw search strings. It works on lexer tokens and
// joins them with single spaces to form candidate phrases.
//
// WINDOWS:
//
// Suffix tests the suffix windows of a token run. With the Longest policy
// the whole run is tried first and the window shrinks toward the last
// token; with Shortest the last token alone is tried first and the window
// grows leftward. The first hit wins. Every window contains the last
// token of the run.
//
// PRECEDENCE:
//
// At each window size the categories are tried in precedence order and
// the first hit wins, so a phrase that exists as both a feature and a
// disease always resolves the same way. The default order is
//
//	feature, disease, pred, therapy
//
// COST:
//
// Suffix performs at most len(run) × len(categories) lookups. The
// interpreter calls it once per token, so an n-token search costs O(n²)
// lookups in the worst case. Wrap the oracle in an oracle.Memo to avoid
// repeating identical questions inside one interpretation.
package resolve
