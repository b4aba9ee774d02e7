package planner

// System prompt forcing JSON-only replies from the waypoint oracle.
const jsonSystemPrompt = "You are a geographic route planning API. You respond with ONLY valid JSON" +
	" — no markdown, no explanation, no thinking, no commentary. Your entire" +
	" response must be a single JSON array."

const waypointPromptTemplate = `You are planning a motorcycle route.

Start location: %s (coordinates: %f, %f)

Route requirements:
- Distance: approximately %d km
- Curviness preference: %d/5 (1=relaxed straight roads, 5=maximum twisties)
- Scenery type: %s
- Route type: %s

Generate exactly %d intermediate waypoints for this route, in riding order. The route will start and %s the start coordinates — do NOT include the start/end point in your waypoints.

CRITICAL RULES:
1. Every waypoint MUST be on or within 100m of a real, paved road that exists in the region. Use your knowledge of actual road networks.
2. NEVER place a waypoint in a lake, sea, river, reservoir, or any body of water. Know where water bodies are in this region.
3. NEVER place a waypoint in the centre of a city with population over 50,000. Small towns and villages are fine.
4. Consecutive waypoints must be connectable via rural or secondary roads WITHOUT passing through major cities (pop > 100k) or crossing large water bodies.
5. For a loop: the waypoints should form a flowing circuit. The last waypoint should naturally lead back toward the start via rural roads.
6. For one-way: waypoints should progress steadily away from the start.
7. Think about the ACTUAL GEOGRAPHY of the region — you know where the roads, water bodies, forests, mountains, and cities are. Use that knowledge.
8. Prefer scenic motorcycle-friendly roads: mountain passes, coastal roads, forest routes, dyke roads, country lanes, secondary highways.
9. Think about the ROUTE BETWEEN waypoints — the road that connects them matters as much as the waypoints themselves. Avoid forcing connections through urban areas.
10. Space waypoints so the total route distance (via roads) roughly matches the requested distance.
%s
Return ONLY a JSON array of %d waypoints: [{"lat": ..., "lng": ...}, ...]`

const fixPromptTemplate = `The motorcycle route you generated has these validation issues:
%s

Original preferences:
- Distance: %d km
- Curviness: %d/5
- Scenery: %s
- Route type: %s

Current waypoints:
%s

The directions provider routed through these roads and areas:
%s

Based on the ACTUAL ROADS the route used (shown above), adjust the waypoints to fix the issues:
- If the route passes through a city, move the nearby waypoints so the connecting road bypasses that city entirely.
- If the route uses highways/motorways, shift waypoints to force secondary road connections.
- If the route doubles back or has dead-end spurs, move the offending waypoint to a location that connects via through-roads.
- Use your knowledge of the region's actual road network.
- Keep the same waypoint count (%d).

Return ONLY a JSON array: [{"lat": ..., "lng": ...}, ...]`

const narrativePromptTemplate = `You are writing a route description for a motorcycle enthusiast app.

Route details:
- Distance: %.1f km
- Estimated duration: %d minutes
- Rider preferences: %dkm, curviness %d/5, %s scenery, %s
- Route overview: starts at %s, passes through %d waypoints

Write 3-4 sentences describing this route. Be specific to the geography and
terrain where possible. Mention what makes this route worth riding — the
character of the roads, the scenery, notable features. Tone: direct,
enthusiastic, written for a rider who knows what a good road feels like.
No generic filler. No "you will love this route" language.`
