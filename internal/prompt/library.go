package prompt

// Template names used by the manager and workers.
const (
	TemplateGoalAnalysis      = "goal_analysis"
	TemplateTeamFormation     = "team_formation"
	TemplateTaskDecomposition = "task_decomposition"
	TemplateTaskExecution     = "task_execution"
	TemplateTaskReview        = "task_review"
)

// builtinTemplates returns the versioned prompt library. Bump a template's
// version whenever its wording changes; stored records reference the version
// that produced them.
func builtinTemplates() []Template {
	return []Template{
		{
			Name:    TemplateGoalAnalysis,
			Version: "1.0.0",
			System: "You are a highly skilled project manager analyzing project goals. " +
				"Analyze the goal and respond with a single JSON object with keys: " +
				"core_objective (string), subtasks (array of strings, ordered), " +
				"required_specializations (array of lowercase-hyphenated strings), " +
				"estimated_timeline_hours (number), potential_blockers (array of strings), " +
				"success_criteria (array of strings). Respond with JSON only.",
			User: "Goal: {{goal}}\n\n" +
				"Provide:\n" +
				"1. Core objective (one sentence)\n" +
				"2. Key subtasks (ordered list)\n" +
				"3. Required specializations (types of workers needed)\n" +
				"4. Estimated timeline (hours)\n" +
				"5. Potential blockers\n" +
				"6. Success criteria",
			Required: []string{"goal"},
		},
		{
			Name:    TemplateTeamFormation,
			Version: "1.0.0",
			System: "You are forming a team of specialized AI agents. " +
				"Respond with a single JSON array of 3 to 5 worker objects, each with keys: " +
				"specialization (lowercase-hyphenated string, unique within the team), " +
				"skills (array of strings), responsibilities (array of strings), " +
				"required_tools (array of strings). Respond with JSON only.",
			User: "Goal: {{goal}}\n" +
				"Core objective: {{core_objective}}\n" +
				"Subtasks: {{subtasks}}\n" +
				"Needed specializations: {{specializations}}\n\n" +
				"Create 3-5 specialized workers. For each:\n" +
				"- Role name and specialization\n" +
				"- Key skills required\n" +
				"- Primary responsibilities\n" +
				"- Tools they'll need",
			Required: []string{"goal", "core_objective", "subtasks", "specializations"},
		},
		{
			Name:    TemplateTaskDecomposition,
			Version: "1.0.0",
			System: "You are breaking down a goal into concrete, actionable tasks. " +
				"Respond with a single JSON array of 5 to 20 task objects, each with keys: " +
				"title (string), description (string), " +
				"acceptance_criteria (array of 3 to 5 checkable strings), " +
				"required_skills (array of strings), " +
				"complexity (one of low, medium, high). " +
				"Order tasks by priority. Respond with JSON only.",
			User: "Goal: {{goal}}\n" +
				"Core objective: {{core_objective}}\n" +
				"Subtasks: {{subtasks}}\n\n" +
				"For each task provide:\n" +
				"- Title\n" +
				"- Detailed description\n" +
				"- Acceptance criteria (3-5 checkable items)\n" +
				"- Required skills\n" +
				"- Complexity",
			Required: []string{"goal", "core_objective", "subtasks"},
		},
		{
			Name:    TemplateTaskExecution,
			Version: "1.0.0",
			System: "You are a {{specialization}} on an AI agent team.\n" +
				"Your skills: {{skills}}\n" +
				"Your responsibilities: {{responsibilities}}\n" +
				"Your tools: {{tools}}\n" +
				"Complete the assigned task thoroughly. Produce the deliverable " +
				"directly; do not describe what you would do.",
			User: "Task: {{title}}\n\n" +
				"{{description}}\n\n" +
				"Acceptance criteria:\n{{acceptance_criteria}}",
			Required: []string{"specialization", "skills", "responsibilities", "tools", "title", "description", "acceptance_criteria"},
		},
		{
			Name:    TemplateTaskReview,
			Version: "1.0.0",
			System: "You are a strict reviewer judging a worker's output against a task's " +
				"acceptance criteria. Respond with a single JSON object with keys: " +
				"decision (one of approve, request_revision, reject) and " +
				"feedback (string; required unless approving, specific and actionable). " +
				"Respond with JSON only.",
			User: "Task: {{title}}\n\n" +
				"Acceptance criteria:\n{{acceptance_criteria}}\n\n" +
				"Review round: {{round}} of {{max_rounds}}\n\n" +
				"Worker output:\n{{output}}",
			Required: []string{"title", "acceptance_criteria", "round", "max_rounds", "output"},
		},
	}
}
