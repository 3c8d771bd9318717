package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/nfesynth/internal/accesskey"
	"github.com/roach88/nfesynth/internal/region"
)

// Timestamp layouts.
const (
	// DateTimeLayout is the offset-aware layout of dhEmi and dhRecbto.
	DateTimeLayout = "2006-01-02T15:04:05-07:00"

	// ProcessedLayout is the layout of the processing-date comment.
	ProcessedLayout = "2006-01-02 15:04:05"

	// protocolLayout is appended to the protocol prefix in nProt.
	protocolLayout = "20060102150405"
)

const (
	protocolPrefix = "135"
	statusApproved = "100"
	reasonApproved = "Autorizado o uso da NF-e"
)

// Issuer holds the placeholder issuer fields written to emit.
// The CNPJ always comes from the access key.
type Issuer struct {
	Name         string
	Street       string
	Number       string
	District     string
	PostalCode   string
	StateTaxID   string
	TaxRegime    string
	NatureOfSale string
}

// DefaultIssuer returns the placeholder issuer profile.
func DefaultIssuer() Issuer {
	return Issuer{
		Name:         "EMPRESA EXEMPLO LTDA",
		Street:       "RUA EXEMPLO",
		Number:       "123",
		District:     "CENTRO",
		PostalCode:   "01000000",
		StateTaxID:   "123456789",
		TaxRegime:    "3",
		NatureOfSale: "Venda",
	}
}

// Document is a synthesized artifact keyed by its access key.
type Document struct {
	Key     string
	Content []byte
}

// ErrZeroKey is returned when Synthesize receives a key that was never decoded.
var ErrZeroKey = errors.New("access key was not decoded")

// Synthesizer renders nfeProc documents.
// The zero value is not usable; use NewSynthesizer.
type Synthesizer struct {
	issuer Issuer
}

// NewSynthesizer creates a Synthesizer using the given issuer profile.
func NewSynthesizer(issuer Issuer) *Synthesizer {
	return &Synthesizer{issuer: issuer}
}

// Synthesize renders the document for key.
//
// Output is UTF-8, NFC-normalized XML with a standard prolog. It is
// deterministic for identical inputs.
func (s *Synthesizer) Synthesize(key accesskey.Key, info region.Info, env Environment, now time.Time) (Document, error) {
	if key.IsZero() {
		return Document{}, ErrZeroKey
	}

	raw := key.String()
	stamp := now.Format(DateTimeLayout)

	doc := nfeProc{
		Versao: LayoutVersion,
		XMLNS:  Namespace,

		KeyNote:         fmt.Sprintf(" chave de acesso: %s ", raw),
		RegionNote:      fmt.Sprintf(" UF: %s ", info.Abbreviation),
		EnvironmentNote: fmt.Sprintf(" Ambiente: %s ", env.Label()),
		ProcessedNote:   fmt.Sprintf(" Data de processamento: %s ", now.Format(ProcessedLayout)),

		NFe: nfe{InfNFe: infNFe{
			ID: "NFe" + raw,
			Ide: ide{
				CUF:      info.Code,
				CNF:      key.NumericCode(),
				NatOp:    s.issuer.NatureOfSale,
				Mod:      key.Model(),
				Serie:    key.Series(),
				NNF:      key.Number(),
				DhEmi:    stamp,
				TpNF:     "1",
				IDDest:   "1",
				CMunFG:   info.LocalityCode,
				TpImp:    "1",
				TpEmis:   key.EmissionType(),
				CDV:      key.CheckDigit(),
				TpAmb:    env.Code(),
				FinNFe:   "1",
				IndFinal: "0",
				IndPres:  "1",
			},
			Emit: emit{
				CNPJ:  key.TaxID(),
				XNome: s.issuer.Name,
				EnderEmit: enderEmit{
					XLgr:    s.issuer.Street,
					Nro:     s.issuer.Number,
					XBairro: s.issuer.District,
					CMun:    info.LocalityCode,
					XMun:    info.LocalityName,
					UF:      info.Abbreviation,
					CEP:     s.issuer.PostalCode,
				},
				IE:  s.issuer.StateTaxID,
				CRT: s.issuer.TaxRegime,
			},
		}},

		ProtNFe: protNFe{
			Versao: LayoutVersion,
			InfProt: infProt{
				TpAmb:    env.Code(),
				VerAplic: info.Abbreviation + "_NFE_PL_008_V4",
				ChNFe:    raw,
				DhRecbto: stamp,
				NProt:    protocolPrefix + now.Format(protocolLayout),
				DigVal:   digestWithDomain(DomainDigest, raw, info.Code, info.LocalityCode, env.Code()),
				CStat:    statusApproved,
				XMotivo:  reasonApproved,
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return Document{}, fmt.Errorf("synthesize %s: %w", raw, err)
	}
	if err := enc.Close(); err != nil {
		return Document{}, fmt.Errorf("synthesize %s: %w", raw, err)
	}
	buf.WriteByte('\n')

	return Document{Key: raw, Content: norm.NFC.Bytes(buf.Bytes())}, nil
}
