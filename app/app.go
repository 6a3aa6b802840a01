package app

import (
	"database/sql"

	"github.com/go-chi/oauth"
	"github.com/promptform/promptform/config"
	"github.com/promptform/promptform/fieldgen"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	// FieldGen is nil when no Gemini API key is configured; /generate then
	// answers 500 and /health reports api_configured:false.
	FieldGen *fieldgen.Service
}
