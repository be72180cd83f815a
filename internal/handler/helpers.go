package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"pastel24h/internal/apierror"
	"pastel24h/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report the JSON/form name of the offending field instead of the Go name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery is the query-string counterpart of bindAndValidate.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros inválidos: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
	return false
}

// fieldPath drops the root struct name: "CloseShiftRequest.records[0].entryQty" -> "records[0].entryQty".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// respondError maps service errors to HTTP responses. Domain errors carry
// their own status; anything else is logged and hidden behind a 500.
func respondError(c *gin.Context, err error) {
	var domainErr *apierror.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.Kind.Status(), domainErr.Response())
		return
	}
	log.Error().
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("path", c.FullPath()).
		Err(err).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
}

// paramUUID parses a path parameter; on failure it writes a 400 and returns false.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.APIError{Detail: "ID inválido", Field: name})
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user id from the JWT claims.
func currentUser(c *gin.Context) uuid.UUID {
	return middleware.GetClaims(c).UserUUID()
}
