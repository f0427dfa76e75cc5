package middleware

import "strings"

// IsPublicEndpoint reports whether path may be served without a bearer
// credential. Mirrors §4.3 of the design exactly:
//   - ends in "/metadata"
//   - contains "/StructureDefinition" or "/ImplementationGuide"
//   - contains "/Questionnaire" but NOT "/QuestionnaireResponse"
//   - is API documentation ("/swagger-ui", "/api-docs")
func IsPublicEndpoint(path string) bool {
	if strings.HasSuffix(path, "/metadata") {
		return true
	}
	if strings.Contains(path, "/StructureDefinition") || strings.Contains(path, "/ImplementationGuide") {
		return true
	}
	if strings.Contains(path, "/Questionnaire") && !strings.Contains(path, "/QuestionnaireResponse") {
		return true
	}
	if strings.Contains(path, "/swagger-ui") || strings.Contains(path, "/api-docs") {
		return true
	}
	return false
}
