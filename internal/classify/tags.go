package classify

import "strings"

// DefaultTagAreas maps common tags/hashtags to area IDs.
// Areas: 1 Salud y Fitness, 2 Negocio y Carrera, 3 Dinero y Finanzas,
// 4 Relaciones, 5 Ocio y Entretenimiento, 6 Entorno Físico,
// 7 Crecimiento Personal, 8 Familia y Amigos, 9 Caridad y Legado,
// 10 Espiritual.
var DefaultTagAreas = map[string]int64{
	// 1. Salud y Fitness
	"fitness": 1, "gym": 1, "workout": 1, "ejercicio": 1, "entrenamiento": 1,
	"training": 1, "crossfit": 1, "cardio": 1, "pesas": 1, "musculacion": 1,
	"hipertrofia": 1, "bodybuilding": 1, "calistenia": 1, "running": 1, "correr": 1,
	"nutricion": 1, "dieta": 1, "alimentacion": 1, "calorias": 1, "macros": 1,
	"proteina": 1, "protein": 1, "keto": 1, "ayuno": 1, "ayunointermitente": 1,
	"lowcarb": 1, "vegano": 1, "vegetariano": 1,
	"salud": 1, "bienestar": 1, "wellness": 1, "health": 1, "healthy": 1, "saludable": 1,
	"yoga": 1, "meditacion": 1, "mindfulness": 1, "estres": 1, "ansiedad": 1, "relajacion": 1,
	"sueno": 1, "dormir": 1, "descanso": 1, "recuperacion": 1, "sleep": 1,
	"recetas": 1, "cocina": 1, "comida": 1, "recetassaludables": 1, "mealprep": 1,

	// 2. Negocio y Carrera
	"emprendimiento": 2, "emprender": 2, "startup": 2, "negocio": 2, "negocios": 2,
	"business": 2, "empresa": 2, "empresario": 2, "emprendedor": 2, "pyme": 2,
	"entrepreneur": 2,
	"marketing": 2, "ventas": 2, "sales": 2, "ecommerce": 2, "amazon": 2,
	"dropshipping": 2, "ads": 2, "publicidad": 2, "branding": 2, "socialmedia": 2,
	"redessociales": 2, "contenido": 2, "copywriting": 2,
	"freelance": 2, "autonomo": 2, "trabajo": 2, "carrera": 2, "profesional": 2,
	"linkedin": 2, "cv": 2, "curriculum": 2, "entrevista": 2, "empleo": 2,
	"remotework": 2, "trabajoremoto": 2,
	"ia": 2, "chatgpt": 2, "inteligenciaartificial": 2, "ai": 2, "openai": 2,
	"machinelearning": 2, "automation": 2, "automatizacion": 2,
	"programacion": 2, "codigo": 2, "code": 2, "developer": 2, "tech": 2,
	"software": 2, "python": 2, "javascript": 2, "webdev": 2, "nocode": 2,
	"notion": 2, "productividad": 2, "productivity": 2, "organizacion": 2,
	"gestion": 2, "liderazgo": 2, "management": 2, "equipo": 2, "leadership": 2,

	// 3. Dinero y Finanzas
	"inversiones": 3, "inversion": 3, "invertir": 3, "invertirenbolsa": 3,
	"investing": 3, "invest": 3,
	"acciones": 3, "bolsa": 3, "trading": 3, "stocks": 3, "mercado": 3,
	"stockmarket": 3, "daytrading": 3, "trader": 3,
	"finanzas": 3, "dinero": 3, "money": 3, "financiero": 3, "economia": 3,
	"personalfinance": 3, "finanzaspersonales": 3,
	"ahorro": 3, "ahorrar": 3, "presupuesto": 3, "deudas": 3, "budget": 3, "saving": 3,
	"crypto": 3, "bitcoin": 3, "btc": 3, "ethereum": 3, "eth": 3,
	"criptomonedas": 3, "blockchain": 3, "web3": 3, "nft": 3,
	"etf": 3, "etfs": 3, "fondos": 3, "fondosindexados": 3, "indexfunds": 3, "vanguard": 3,
	"sp500": 3, "nasdaq": 3, "nasdaq100": 3, "dowjones": 3,
	"dividendos": 3, "dividends": 3, "interescompuesto": 3, "compoundinterest": 3,
	"rentabilidad": 3, "ingresos": 3, "ingresospasivos": 3,
	"jubilacion": 3, "retiro": 3, "pension": 3, "rothira": 3, "retirement": 3, "401k": 3,
	"warrenbuffett": 3, "charliemunger": 3, "valueinvesting": 3, "berkshire": 3,
	"inmobiliario": 3, "realestate": 3, "propiedades": 3, "inmuebles": 3, "alquileres": 3,

	// 4. Relaciones
	"relaciones": 4, "pareja": 4, "amor": 4, "love": 4, "dating": 4, "citas": 4,
	"comunicacion": 4, "conflictos": 4, "matrimonio": 4, "seduccion": 4,
	"atraccion": 4, "relationship": 4, "couple": 4,

	// 5. Ocio y Entretenimiento
	"entretenimiento": 5, "diversion": 5, "ocio": 5, "humor": 5, "comedia": 5,
	"funny": 5, "memes": 5,
	"musica": 5, "music": 5, "arte": 5, "art": 5,
	"viajes": 5, "travel": 5, "turismo": 5, "viajar": 5, "aventura": 5,
	"gaming": 5, "videojuegos": 5, "juegos": 5, "gamer": 5, "esports": 5,
	"peliculas": 5, "series": 5, "netflix": 5, "cine": 5, "movies": 5,
	"deportes": 5, "futbol": 5, "football": 5, "basketball": 5, "soccer": 5,
	"hobbies": 5, "manualidades": 5, "diy": 5, "crafts": 5,

	// 6. Entorno Físico
	"casa": 6, "hogar": 6, "home": 6, "decoracion": 6, "decor": 6,
	"interiordesign": 6, "minimalismo": 6, "minimalist": 6, "limpieza": 6,
	"cleaning": 6, "orden": 6, "konmari": 6, "mudanza": 6, "moving": 6,
	"renta": 6, "alquiler": 6,

	// 7. Crecimiento Personal
	"desarrollopersonal": 7, "crecimientopersonal": 7, "superacion": 7,
	"selfimprovement": 7, "personalgrowth": 7, "selfdevelopment": 7,
	"habitos": 7, "habits": 7, "disciplina": 7, "discipline": 7,
	"constancia": 7, "rutina": 7, "routine": 7,
	"motivacion": 7, "motivation": 7, "inspiracion": 7, "mentalidad": 7,
	"mindset": 7, "actitud": 7,
	"libros": 7, "books": 7, "lectura": 7, "reading": 7, "aprendizaje": 7,
	"learning": 7, "educacion": 7, "education": 7, "conocimiento": 7,
	"estoicismo": 7, "stoicism": 7, "filosofia": 7, "philosophy": 7,
	"psicologia": 7, "psychology": 7,
	"metas": 7, "goals": 7, "objetivos": 7, "proposito": 7, "purpose": 7,
	"autoestima": 7, "confianza": 7, "confidence": 7, "seguridad": 7,
	"aprendeentiktok": 7, "tiktoklearning": 7,

	// 8. Familia y Amigos
	"familia": 8, "family": 8, "hijos": 8, "kids": 8, "padres": 8, "parents": 8,
	"maternidad": 8, "motherhood": 8, "paternidad": 8, "fatherhood": 8,
	"crianza": 8, "parenting": 8, "bebes": 8, "babies": 8, "ninos": 8,
	"children": 8, "adolescentes": 8, "teens": 8,
	"amigos": 8, "friends": 8, "amistad": 8, "friendship": 8, "social": 8,

	// 9. Caridad y Legado
	"voluntariado": 9, "volunteering": 9, "caridad": 9, "charity": 9,
	"donacion": 9, "donation": 9, "ayudar": 9, "helping": 9, "impacto": 9,
	"impact": 9, "legado": 9, "legacy": 9, "comunidad": 9, "community": 9,
	"nonprofit": 9, "ong": 9,

	// 10. Espiritual
	"espiritual": 10, "spiritual": 10, "espiritualidad": 10, "spirituality": 10,
	"fe": 10, "faith": 10, "religion": 10, "oracion": 10, "prayer": 10,
	"biblia": 10, "bible": 10, "dios": 10, "god": 10, "iglesia": 10,
	"church": 10, "cristiano": 10, "christian": 10, "sentido": 10, "trascendencia": 10,
}

// TagSignal derives a classification signal from a video's tags by voting.
// Each tag that appears in the mapping votes for its area; the area with
// the most votes wins. Confidence blends dominance (winning area's share of
// matched votes) with coverage (share of tags that matched at all). A
// single matching tag yields very low confidence.
// Parameters:
//   - tags: raw tags from the video.
//   - mappings: tag to area table; nil uses DefaultTagAreas.
// Returns:
//   - *Signal: tag signal, or nil when no tag matched.
func TagSignal(tags []string, mappings map[string]int64) *Signal {
	if len(tags) == 0 {
		return nil
	}
	if mappings == nil {
		mappings = DefaultTagAreas
	}

	areaVotes := make(map[int64]int)
	matched := 0
	for _, tag := range tags {
		key := strings.ToLower(strings.TrimSpace(tag))
		if areaID, ok := mappings[key]; ok {
			areaVotes[areaID]++
			matched++
		}
	}
	if matched == 0 {
		return nil
	}

	var bestArea int64
	bestVotes := -1
	for areaID, votes := range areaVotes {
		if votes > bestVotes || (votes == bestVotes && areaID < bestArea) {
			bestArea = areaID
			bestVotes = votes
		}
	}

	dominance := float64(bestVotes) / float64(matched)
	coverage := float64(matched) / float64(len(tags))

	var confidence float64
	if matched < 2 {
		confidence = 0.3 * dominance * coverage
	} else {
		confidence = 0.4 + 0.3*dominance + 0.3*coverage
		if confidence > 0.85 {
			confidence = 0.85
		}
	}

	return &Signal{
		Source:       SourceTags,
		AreaID:       bestArea,
		Confidence:   confidence,
		MatchedCount: matched,
	}
}
