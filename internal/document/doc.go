// Package document synthesizes NF-e processed documents (nfeProc XML) from
// decoded access keys.
//
// Synthesis is a pure function of its inputs: the decoded key, the region
// codes, the processing environment and a timestamp. Two calls with the same
// inputs produce byte-identical output; two calls differing only in the
// timestamp produce documents that differ only in dhEmi, dhRecbto, nProt and
// the processing-date comment.
//
// No remote retrieval and no signature handling happen here. The digVal
// element carries a local SHA-256 digest of the key-derived content so that
// consumers can detect tampering of the synthesized fields.
package document
