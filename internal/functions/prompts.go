package functions

const (
	brandTextSystem = `You are the copywriter for an industrial sensor manufacturer. Write clear, confident, technically precise copy. Answer with the copy only.`

	contentFillSystem = `You draft B2B case studies for an industrial sensor manufacturer. Answer with a JSON object with the keys title, subtitle, challenge, solution, results (array of strings), stats (array of {value, label}) and quote ({text, attribution}). Do not invent customer names that were not given.`

	caseStudySuggestionsSystem = `You review case study sections for an industrial sensor manufacturer. Answer with a JSON object {"suggestions": [string]} holding three to five concrete improvements.`

	slideSuggestionsSystem = `You coach presenters building slides for an industrial sensor manufacturer. Answer with a JSON object {"suggestions": [{"type", "title", "content"}]} where type is one of heading, paragraph, bullet-list, stat-card, quote or chart.`

	chartSystem = `You turn descriptions into chart data. Answer with a JSON object {"chartType", "title", "data": [{"label", "value"}]} where value is a number. chartType is one of bar, line, pie or area.`

	dependenciesSystem = `You analyse a web application's source to decide whether a page can be removed. Answer with a JSON object {"dependencies": [{"file", "reason"}], "safeToDelete": boolean} listing every place that links to, imports or routes to the page.`

	convertSystem = `You convert plain case study text into a block document. Answer with a JSON object {"name", "pages": [{"blocks": [{"type", "content"}]}]}. Allowed block types and content shapes: heading {text, level}, subheading {text}, paragraph {text}, stat-card {stat: {value, label}, description}, spec-table {rows: [{label, value}]}, bullet-list {items}, quote {text, attribution}, callout {text, variant}, cta {text, buttonLabel, url}, comparison {left: {title, items}, right: {title, items}}, divider {}, image {src, alt, caption}, chart {chartType, title, data: [{label, value}]}, two-column {left, right}, spacer {height}.`

	imagePrompt   = `Create a clean, photographic brand image for an industrial sensor manufacturer: %s`
	upscalePrompt = `Upscale this image %dx. Increase resolution and sharpen detail without changing composition, colours or content.`
)
