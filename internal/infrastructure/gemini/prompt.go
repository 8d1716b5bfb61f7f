package gemini

const diagnosisPrompt = `You are an agricultural plant pathologist. Look at this crop leaf photo and identify the disease affecting it.
Respond with JSON only. Provide the answer twice: once in English and once in Telugu.
For each language give:
- disease: the name of the disease, or "Healthy" if the leaf shows no disease
- pesticide: a commonly available pesticide or fungicide that treats it, or "Not required"
- recommendation: short practical advice for the farmer (dosage, timing, cultural practices)`

func contentSchema(lang string) *schema {
	return &schema{
		Type:        "OBJECT",
		Description: "Diagnosis written in " + lang,
		Properties: map[string]*schema{
			"disease":        {Type: "STRING"},
			"pesticide":      {Type: "STRING"},
			"recommendation": {Type: "STRING"},
		},
		Required: []string{"disease", "pesticide", "recommendation"},
	}
}

func responseSchema() *schema {
	return &schema{
		Type: "OBJECT",
		Properties: map[string]*schema{
			"english": contentSchema("English"),
			"telugu":  contentSchema("Telugu"),
		},
		Required: []string{"english", "telugu"},
	}
}
