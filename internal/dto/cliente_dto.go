package dto

type CriarClienteRequest struct {
	Nome    string `json:"nome"    validate:"required,min=2,max=120"`
	Contato string `json:"contato" validate:"max=120"`
}

type AtualizarClienteRequest struct {
	Nome    *string `json:"nome"    validate:"omitempty,min=2,max=120"`
	Contato *string `json:"contato" validate:"omitempty,max=120"`
}

type ClienteFilter struct {
	Busca string `form:"q" validate:"max=100"`
}

type ClienteResponse struct {
	ID        string `json:"id"`
	Nome      string `json:"nome"`
	Contato   string `json:"contato"`
	CreatedAt string `json:"created_at"`
}
