// Package template reads workflow template documents and merges tenant
// identifiers into them without touching the rest of the document.
package template

import (
	"tenant-deployment-system/internal/apperr"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	ParamLicenseGUID = "LicenseGUID"
	ParamClientID    = "ClientID"
)

// Parameterizer is what the deployment orchestrator needs from this package.
type Parameterizer interface {
	Parameterize(document []byte, tenantExternalID, tenantLicenseGUID string) ([]byte, error)
}

type ParameterizerFunc func(document []byte, tenantExternalID, tenantLicenseGUID string) ([]byte, error)

func (f ParameterizerFunc) Parameterize(document []byte, tenantExternalID, tenantLicenseGUID string) ([]byte, error) {
	return f(document, tenantExternalID, tenantLicenseGUID)
}

// Parameterize sets the LicenseGUID and ClientID parameter defaults of a
// workflow document. Existing parameter attributes other than defaultValue
// are kept, and every other member of the document is returned byte for byte.
func Parameterize(document []byte, tenantExternalID, tenantLicenseGUID string) ([]byte, error) {
	if !gjson.ValidBytes(document) || !gjson.ParseBytes(document).IsObject() {
		return nil, apperr.TemplateFormat("template is not a JSON object", nil)
	}

	params := gjson.GetBytes(document, "parameters")
	if params.Exists() && !params.IsObject() {
		return nil, apperr.TemplateFormat("template parameters must be an object", nil)
	}

	out := make([]byte, len(document))
	copy(out, document)

	var err error
	for _, p := range []struct{ name, value string }{
		{ParamLicenseGUID, tenantLicenseGUID},
		{ParamClientID, tenantExternalID},
	} {
		out, err = setParameter(out, p.name, p.value)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func setParameter(doc []byte, name, value string) ([]byte, error) {
	path := "parameters." + name

	existing := gjson.GetBytes(doc, path)
	if existing.Exists() && !existing.IsObject() {
		return nil, apperr.TemplateFormat("template parameter "+name+" must be an object", nil)
	}

	var err error
	if !existing.Exists() {
		doc, err = sjson.SetRawBytes(doc, path, []byte(`{"type":"string"}`))
		if err != nil {
			return nil, apperr.TemplateFormat("set parameter "+name, err)
		}
	}

	doc, err = sjson.SetBytes(doc, path+".defaultValue", value)
	if err != nil {
		return nil, apperr.TemplateFormat("set parameter "+name, err)
	}
	return doc, nil
}

// SetState sets properties.state of a workflow resource document.
func SetState(document []byte, state string) ([]byte, error) {
	if !gjson.ValidBytes(document) || !gjson.ParseBytes(document).IsObject() {
		return nil, apperr.TemplateFormat("workflow resource is not a JSON object", nil)
	}
	props := gjson.GetBytes(document, "properties")
	if props.Exists() && !props.IsObject() {
		return nil, apperr.TemplateFormat("workflow properties must be an object", nil)
	}

	out, err := sjson.SetBytes(document, "properties.state", state)
	if err != nil {
		return nil, apperr.TemplateFormat("set workflow state", err)
	}
	return out, nil
}
