package dauchez

import "encoding/json"

// The success envelope the extranet answers script-originated requests
// with. Depending on the site revision the payload is either flat or
// nested one level inside a wrapper object, so both shapes have to be
// accepted.
type envelope struct {
	Response    bool   `json:"response"`
	FlagLogin   bool   `json:"flag_login"`
	Message     string `json:"message"`
	Redirect    string `json:"redirect"`
	ReturnArray struct {
		Contenu string `json:"contenu"`
	} `json:"returnArray"`
}

func (e envelope) empty() bool {
	return !e.Response && !e.FlagLogin &&
		e.Message == "" && e.Redirect == "" && e.ReturnArray.Contenu == ""
}

func decodeEnvelope(body []byte) (envelope, error) {
	var flat envelope
	flatErr := json.Unmarshal(body, &flat)
	if flatErr == nil && !flat.empty() {
		return flat, nil
	}

	var wrapped struct {
		Root struct {
			Children []envelope `json:"children"`
		} `json:"_root"`
	}
	err := json.Unmarshal(body, &wrapped)
	if err == nil && len(wrapped.Root.Children) > 0 {
		return wrapped.Root.Children[0], nil
	}

	// a flat body whose flags are all unset is still a valid (failed)
	// envelope
	if flatErr == nil {
		return flat, nil
	}
	return envelope{}, flatErr
}
