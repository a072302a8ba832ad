package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/apierror"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/middleware"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/realtime"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Money types validate as numbers so tags like min=0 work on them.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch v := field.Interface().(type) {
		case decimal.Decimal:
			f, _ := v.Float64()
			return f
		case dto.Valor:
			f, _ := v.Decimal.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{}, dto.Valor{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros inválidos: "+err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// operador builds the acting operator from the access token claims.
func operador(c *gin.Context) service.Operador {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Operador{}
	}
	id, _ := uuid.Parse(claims.UserID)
	nome := claims.Nome
	if nome == "" {
		nome = claims.Username
	}
	return service.Operador{ID: id, Nome: nome, Rol: claims.Rol}
}

// errorStatus maps service sentinels to HTTP status codes.
var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrCarrinhoVazio, http.StatusBadRequest},
	{service.ErrMetodoPagamento, http.StatusBadRequest},
	{service.ErrItemInvalido, http.StatusBadRequest},
	{service.ErrStatusParcela, http.StatusBadRequest},
	{service.ErrCodigoInvalido, http.StatusBadRequest},
	{service.ErrPeriodoInvalido, http.StatusBadRequest},
	{service.ErrQuantidadeParcelas, http.StatusBadRequest},
	{service.ErrValorInsuficiente, http.StatusUnprocessableEntity},
	{service.ErrValorForaDoLimite, http.StatusUnprocessableEntity},
	{service.ErrClienteObrigatorio, http.StatusUnprocessableEntity},
	{service.ErrOperadorAusente, http.StatusUnauthorized},
	{service.ErrCredenciaisInvalidas, http.StatusUnauthorized},
	{service.ErrTokenInvalido, http.StatusUnauthorized},
	{service.ErrNaoAutorizado, http.StatusForbidden},
	{service.ErrVendaNaoEncontrada, http.StatusNotFound},
	{service.ErrParcelaNaoEncontrada, http.StatusNotFound},
	{service.ErrProdutoNaoEncontrado, http.StatusNotFound},
	{service.ErrClienteNaoEncontrado, http.StatusNotFound},
	{service.ErrUsuarioNaoEncontrado, http.StatusNotFound},
	{realtime.ErrColecaoDesconhecida, http.StatusNotFound},
	{service.ErrVendaCancelada, http.StatusConflict},
	{service.ErrEstoqueInsuficiente, http.StatusConflict},
	{service.ErrUsuarioJaExiste, http.StatusConflict},
	{service.ErrInsightsDesabilitado, http.StatusServiceUnavailable},
	{service.ErrInsightsIndisponivel, http.StatusServiceUnavailable},
}

// respondError writes the envelope for err. Unknown errors are logged and
// answered with a generic 500 so internals never reach the client.
func respondError(c *gin.Context, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			c.JSON(m.status, apierror.New(err.Error()))
			return
		}
	}
	log.Error().
		Err(err).
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("path", c.FullPath()).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
}
