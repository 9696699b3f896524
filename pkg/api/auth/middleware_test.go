package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scil/pkg/core/store"
	"scil/pkg/models"
)

type autenticadorFijo struct {
	usuario *models.Usuario
	err     error
}

func (a *autenticadorFijo) Autenticar(context.Context, string, string) (*models.Usuario, error) {
	return a.usuario, a.err
}

func bitacoraSilenciosa() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRequerirSinCredenciales(t *testing.T) {
	manejador := Requerir(&autenticadorFijo{}, bitacoraSilenciosa(), func(http.ResponseWriter, *http.Request, *models.Usuario) {
		t.Fatal("el manejador interno no debe ejecutarse sin credenciales")
	})

	rec := httptest.NewRecorder()
	manejador(rec, httptest.NewRequest(http.MethodGet, "/api/cruces", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
}

func TestRequerirCredencialesInvalidas(t *testing.T) {
	autenticador := &autenticadorFijo{err: store.ErrCredenciales}
	manejador := Requerir(autenticador, bitacoraSilenciosa(), func(http.ResponseWriter, *http.Request, *models.Usuario) {
		t.Fatal("el manejador interno no debe ejecutarse con credenciales inválidas")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/cruces", nil)
	req.SetBasicAuth("odilia", "clave-equivocada")
	rec := httptest.NewRecorder()
	manejador(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequerirErrorDeInfraestructura(t *testing.T) {
	autenticador := &autenticadorFijo{err: errors.New("base fuera de línea")}
	manejador := Requerir(autenticador, bitacoraSilenciosa(), func(http.ResponseWriter, *http.Request, *models.Usuario) {
		t.Fatal("el manejador interno no debe ejecutarse si la base falla")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/cruces", nil)
	req.SetBasicAuth("odilia", "odilia2025")
	rec := httptest.NewRecorder()
	manejador(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequerirEntregaUsuario(t *testing.T) {
	esperado := &models.Usuario{Usuario: "odilia", Entes: []string{"TODOS"}}
	manejador := Requerir(&autenticadorFijo{usuario: esperado}, bitacoraSilenciosa(), func(w http.ResponseWriter, _ *http.Request, u *models.Usuario) {
		require.Equal(t, esperado, u)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/cruces", nil)
	req.SetBasicAuth("odilia", "odilia2025")
	rec := httptest.NewRecorder()
	manejador(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
