package tools

import (
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Register defines the tool set with Genkit and returns the tool handles to
// advertise to the model. Execution is driven by Registry.Execute rather
// than the Genkit runtime, so the generation loop stays in control of round
// limits and failure handling; the handlers defined here delegate to the
// same tools.
func Register(g *genkit.Genkit, search *SearchTool, outline *OutlineTool) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if search == nil || outline == nil {
		return nil, fmt.Errorf("both tools are required")
	}

	return []ai.Tool{
		genkit.DefineTool(g, SearchCourseContentName,
			"Search course materials with smart course name matching and lesson filtering. "+
				"Returns: content excerpts labeled with their course and lesson. "+
				"Use this for questions about specific course content or detailed educational materials. "+
				"Course names may be partial; lesson_number narrows to one lesson.",
			func(ctx *ai.ToolContext, in SearchInput) (string, error) {
				return search.Search(ctx.Context, in)
			}),
		genkit.DefineTool(g, GetCourseOutlineName,
			"Get the complete outline of a course: title, link and every lesson number and title. "+
				"Use this for questions about course structure, lesson lists, or what a course covers. "+
				"Course names may be partial.",
			func(ctx *ai.ToolContext, in OutlineInput) (string, error) {
				return outline.Outline(ctx.Context, in)
			}),
	}, nil
}
