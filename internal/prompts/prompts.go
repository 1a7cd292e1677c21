package prompts

// ============================================================================
// Classification Prompt (LLM)
// ============================================================================

// ClassificationPromptHeader opens the area-classification prompt.
// The caller appends the area list, the per-area topic lists (topic ids
// embedded inline so the model can reference them directly), author-history
// context, tag context, and the content excerpt, then closes with
// ClassificationPromptFooter.
//
// Expected model output is a single JSON object:
//
//	{"area_id": 3, "topic_ids": [31, 34], "confianza": "alta"}
//
// confianza values map to confidence scores: alta=0.9, media=0.6, baja=0.3.
const ClassificationPromptHeader = `Eres un clasificador de contenido de video. Tu tarea es asignar el video a UNA de las siguientes áreas temáticas y elegir hasta 3 temas específicos del área elegida.

ÁREAS DISPONIBLES:
`

// ClassificationPromptFooter closes the classification prompt and pins the
// output format. Kept strict so the response parser can rely on a single
// JSON object with no prose around it.
const ClassificationPromptFooter = `
INSTRUCCIONES:
- Elige exactamente UN area_id de la lista de áreas.
- Elige hasta 3 topic_ids, solo del área elegida.
- Indica tu confianza: "alta", "media" o "baja".
- Responde SOLO con el objeto JSON, sin texto adicional.

FORMATO DE RESPUESTA:
{"area_id": <número>, "topic_ids": [<números>], "confianza": "alta|media|baja"}`

// ============================================================================
// Summary Prompt (LLM)
// ============================================================================

// SummaryPrompt requests a fixed-format summary from a transcript excerpt.
// The parser recognizes the RESUMEN and PUNTOS CLAVE section markers
// case-insensitively and accepts -, •, * and numeric bullet markers.
const SummaryPrompt = `Analiza este video y proporciona un resumen detallado con puntos clave.

Título: %s
Transcripción:
%s

IMPORTANTE: Responde EXACTAMENTE en este formato:

RESUMEN: [Escribe aquí un resumen de 4-6 oraciones sobre el contenido del video]

PUNTOS CLAVE:
- [Primer punto clave]
- [Segundo punto clave]
- [Tercer punto clave]
- [Cuarto punto clave]`
