package dto

type ConfiguracaoRequest struct {
	NomeEmpresa string `json:"nome_empresa" validate:"max=120"`
	LogoURL     string `json:"logo_url"     validate:"omitempty,url,max=500"`
	PixQRURL    string `json:"pix_qr_url"   validate:"omitempty,url,max=500"`
}

type ConfiguracaoResponse struct {
	NomeEmpresa string `json:"nome_empresa"`
	LogoURL     string `json:"logo_url"`
	PixQRURL    string `json:"pix_qr_url"`
}

type InsightResponse struct {
	Texto            string `json:"texto"`
	VendasAnalisadas int    `json:"vendas_analisadas"`
}
