package fieldgen

// Instruction suffix appended to every user prompt. The numbered
// comma-separated format is what ParseFields expects back.
const promptSuffix = `

Based on the above information, generate a comprehensive form with appropriate fields.

IMPORTANT INSTRUCTIONS:
- Provide 8-12 essential and important fields
- Focus on the most critical information needed for this form
- Consider the target audience and purpose when selecting fields
- Use appropriate data types for each field

Format each field as a numbered list in comma-separated format:
"field label, field description, field data type, validation rules, [enumerated values if dropdown/select]"

Example format:
1. Full Name, Enter your complete name, text, required min:2 max:50
2. Email Address, Your contact email, email, required
3. Country, Select your country, select, required, [USA, Canada, UK, India, Other]

Provide ONLY the numbered list of fields. Keep it concise and user-friendly.`

// BuildPrompt turns the user's form description (possibly already merged
// with title/purpose/audience context by the caller) into the full prompt
// sent to the model. Pure function, no input validation beyond what the
// caller did.
func BuildPrompt(userPrompt string) string {
	return userPrompt + promptSuffix
}
