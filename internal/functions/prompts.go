package functions

import (
	"fmt"
	"strings"

	"campusd/internal/completion"
)

const (
	analystSystem  = "You are an educational analytics assistant that specializes in analyzing attendance patterns and providing actionable insights to educators."
	reminderSystem = "You are a helpful assistant generating actionable notifications for teachers based on class attendance data."
)

func analysisRequest(in AnalysisInput) completion.Request {
	present := 0
	for _, r := range in.AttendanceRecords {
		if r.Present {
			present++
		}
	}
	total := len(in.Students)
	rate := 0.0
	if total > 0 {
		rate = float64(present) / float64(total) * 100
	}

	prompt := fmt.Sprintf(`Analyze the following attendance data for class %q:
- Total students: %d
- Present students: %d
- Attendance rate: %.2f%%

Please provide:
1. A brief analysis of this attendance pattern
2. Any concerning trends if attendance is below 80%%
3. Suggestions for improving attendance if needed

Keep your response concise and actionable, under 200 words.`, in.ClassName, total, present, rate)

	return completion.Request{System: analystSystem, Prompt: prompt, Temperature: 0.5, MaxTokens: 500}
}

func improvementsRequest(in ImprovementsInput) completion.Request {
	prompt := fmt.Sprintf(`Based on the following attendance history for class %q:
%s

Please provide:
1. A pattern analysis of attendance over time
2. Three specific, actionable suggestions for improving attendance
3. How to recognize and reward consistent attendance

Format your response as brief bullet points, totaling under 250 words.`, in.ClassName, bullets(in.AttendanceHistory))

	return completion.Request{System: analystSystem, Prompt: prompt, Temperature: 0.5, MaxTokens: 500}
}

func remindersRequest(in RemindersInput) completion.Request {
	prompt := fmt.Sprintf(`You are a virtual assistant for educators.
Based on the following recent attendance history for class %q:
%s

Please generate 3 concise, actionable smart notifications or reminders that a school management system could display to the educator.
- If attendance is trending low, suggest ways to engage students, send reminders to absentees, or take class-wide action.
- If a student is often absent, suggest a personal outreach notification.
- If attendance rates improve, suggest positive feedback notification.
Use bullet points. Be brief.`, in.ClassName, bullets(in.AttendanceHistory))

	return completion.Request{System: reminderSystem, Prompt: prompt, Temperature: 0.4, MaxTokens: 300}
}

func bullets(history []HistoryEntry) string {
	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("- %s: %s (%d present, %d absent)", h.Date, h.Rate, h.Present, h.Absent))
	}
	return strings.Join(lines, "\n")
}
