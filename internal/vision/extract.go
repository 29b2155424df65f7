package vision

// TextResult is the text pulled out of one image response.
type TextResult struct {
	Text      string
	Locale    string
	Languages []DetectedLanguage
	Pages     int
	Blocks    int
	Words     int
	// Annotations counts textAnnotations entries, including the first
	// whole-image entry.
	Annotations int
	// Response is the decoded body the text came from.
	Response *AnnotateResponse
}

// ExtractText reads the first image response. The text is the full text
// annotation when present, else the description of the first text
// annotation. A per-image error object becomes a *RemoteError and a
// response with no text is ErrNoResultFound.
func ExtractText(resp *AnnotateResponse) (*TextResult, error) {
	if resp == nil || len(resp.Responses) == 0 {
		return nil, ErrNoResultFound
	}
	r := resp.Responses[0]
	if r.Error != nil && (r.Error.Code != 0 || r.Error.Message != "") {
		return nil, &RemoteError{Code: r.Error.Code, Status: r.Error.Status, Message: r.Error.Message}
	}

	res := &TextResult{Annotations: len(r.TextAnnotations), Response: resp}
	if fta := r.FullTextAnnotation; fta != nil {
		res.Text = fta.Text
		res.Pages = len(fta.Pages)
		for _, p := range fta.Pages {
			if p.Property != nil {
				res.Languages = append(res.Languages, p.Property.DetectedLanguages...)
			}
			res.Blocks += len(p.Blocks)
			for _, b := range p.Blocks {
				for _, para := range b.Paragraphs {
					res.Words += len(para.Words)
				}
			}
		}
	}
	if res.Text == "" && len(r.TextAnnotations) > 0 {
		res.Text = r.TextAnnotations[0].Description
	}
	if res.Text == "" {
		return nil, ErrNoResultFound
	}

	if len(r.TextAnnotations) > 0 {
		res.Locale = r.TextAnnotations[0].Locale
	}
	if res.Locale == "" && len(res.Languages) > 0 {
		res.Locale = res.Languages[0].LanguageCode
	}
	return res, nil
}
