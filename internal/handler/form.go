package handler

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/weiawesome/wes-chat-room/pkg/log"
)

var formTemplate = template.Must(template.New("identify").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Join chat</title>
</head>
<body>
<h3>Enter your email or username</h3>
<form method="POST" action="/">
<input type="text" name="identifier" value="{{.Value}}" required autofocus>
<button type="submit">Join chat</button>
</form>
{{if .Error}}<p>{{.Error}}</p>{{end}}
</body>
</html>
`))

type formData struct {
	Value string
	Error string
}

// submittedIdentifier reads the form field from a POST body or the query.
func submittedIdentifier(r *http.Request) string {
	for _, field := range []string{"identifier", "email"} {
		if v := strings.TrimSpace(r.FormValue(field)); v != "" {
			return v
		}
	}
	return ""
}

func renderForm(w http.ResponseWriter, r *http.Request, data formData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if err := formTemplate.Execute(w, data); err != nil {
		l := log.Ctx(r.Context())
		l.Error().Err(err).Msg("failed to render identity form")
	}
}
