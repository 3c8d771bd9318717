// Package accesskey decodes 44-digit NF-e access keys.
//
// An access key is a fixed-layout numeric string. Its layout is described
// declaratively by a Schema: an ordered list of field descriptors, each with
// an offset, a length and the charset the field must satisfy. A single
// generic routine (Schema.Decode) walks the descriptors, so adding a field or
// tightening a charset never requires a new parser.
//
// Layout of the default schema:
//
//	offset  len  field
//	 0       2   cUF     region code
//	 2       4   AAMM    issuance year-month
//	 6      14   CNPJ    issuer tax id
//	20       2   mod     document model
//	22       3   serie   series
//	25       9   nNF     document number
//	34       1   tpEmis  emission type
//	35       8   cNF     numeric code
//	43       1   cDV     check digit
//
// Candidate lists are read with ReadKeys. Lines that do not have the access
// key shape are filtered (counted, never reported as errors); lines that have
// the shape but fail decoding surface as *InvalidKeyError from Decode so the
// caller can count them as per-item failures.
package accesskey
