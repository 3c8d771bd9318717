package document

import "encoding/xml"

// Namespace is the NF-e XML namespace.
const Namespace = "http://www.portalfiscal.inf.br/nfe"

// LayoutVersion is the NF-e layout version written to versao attributes.
const LayoutVersion = "4.00"

type nfeProc struct {
	XMLName xml.Name `xml:"nfeProc"`
	Versao  string   `xml:"versao,attr"`
	XMLNS   string   `xml:"xmlns,attr"`

	KeyNote         string `xml:",comment"`
	RegionNote      string `xml:",comment"`
	EnvironmentNote string `xml:",comment"`
	ProcessedNote   string `xml:",comment"`

	NFe     nfe     `xml:"NFe"`
	ProtNFe protNFe `xml:"protNFe"`
}

type nfe struct {
	InfNFe infNFe `xml:"infNFe"`
}

type infNFe struct {
	ID   string `xml:"Id,attr"`
	Ide  ide    `xml:"ide"`
	Emit emit   `xml:"emit"`
}

type ide struct {
	CUF      string `xml:"cUF"`
	CNF      string `xml:"cNF"`
	NatOp    string `xml:"natOp"`
	Mod      string `xml:"mod"`
	Serie    string `xml:"serie"`
	NNF      string `xml:"nNF"`
	DhEmi    string `xml:"dhEmi"`
	TpNF     string `xml:"tpNF"`
	IDDest   string `xml:"idDest"`
	CMunFG   string `xml:"cMunFG"`
	TpImp    string `xml:"tpImp"`
	TpEmis   string `xml:"tpEmis"`
	CDV      string `xml:"cDV"`
	TpAmb    string `xml:"tpAmb"`
	FinNFe   string `xml:"finNFe"`
	IndFinal string `xml:"indFinal"`
	IndPres  string `xml:"indPres"`
}

type emit struct {
	CNPJ      string    `xml:"CNPJ"`
	XNome     string    `xml:"xNome"`
	EnderEmit enderEmit `xml:"enderEmit"`
	IE        string    `xml:"IE"`
	CRT       string    `xml:"CRT"`
}

type enderEmit struct {
	XLgr    string `xml:"xLgr"`
	Nro     string `xml:"nro"`
	XBairro string `xml:"xBairro"`
	CMun    string `xml:"cMun"`
	XMun    string `xml:"xMun"`
	UF      string `xml:"UF"`
	CEP     string `xml:"CEP"`
}

type protNFe struct {
	Versao  string  `xml:"versao,attr"`
	InfProt infProt `xml:"infProt"`
}

type infProt struct {
	TpAmb    string `xml:"tpAmb"`
	VerAplic string `xml:"verAplic"`
	ChNFe    string `xml:"chNFe"`
	DhRecbto string `xml:"dhRecbto"`
	NProt    string `xml:"nProt"`
	DigVal   string `xml:"digVal"`
	CStat    string `xml:"cStat"`
	XMotivo  string `xml:"xMotivo"`
}
