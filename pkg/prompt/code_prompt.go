package prompt

// BuildCodePrompt asks the model to diagnose code against the errors it produced
// and answer with the full corrected program.
func BuildCodePrompt(code, errorLogs string) string {
	return "Here is a piece of code: " +
		"\n ```\n" + code + " \n```" +
		"\n it is showing me these errors" +
		"\n```\n" + errorLogs + " \n ```" +
		"\n identify the issue in the code and suggest a fix. write the full code with the issue fixed."
}
