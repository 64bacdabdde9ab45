// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package assist provides the canned chat fallback used when the backend chat
// assistant is unreachable. It is a static keyword lookup, not an AI.
package assist

import "strings"

type topic struct {
	keywords []string
	response string
}

// topics are checked in order, the first keyword hit wins.
var topics = []topic{
	{
		keywords: []string{"how many", "what tools", "inventory", "tools do i have"},
		response: "I can't reach your inventory right now. Once the connection is back, " +
			"ask me again and I'll list every tool you've captured.",
	},
	{
		keywords: []string{"how to", "plan", "task", "project", "install", "build", "fix"},
		response: "I'd be happy to help you plan that task! I can't check your tool " +
			"inventory while offline, but tell me more about the task and I'll " +
			"suggest what you'll typically need.",
	},
	{
		keywords: []string{"recommend", "suggest", "need for", "tools for"},
		response: "I can help recommend tools for your project. What specific type of " +
			"work are you planning?",
	},
}

const defaultResponse = "Hello! I can help you with your tool inventory. Ask me about:\n\n" +
	"• Tool inventory: \"How many hammers do I have?\"\n" +
	"• Task planning: \"What tools do I need to hang a picture?\"\n" +
	"• Tool recommendations: \"What tools do I need for electrical work?\""

// Fallback returns a canned response for the given user message.
func Fallback(message string) string {
	lower := strings.ToLower(message)
	for _, t := range topics {
		for _, keyword := range t.keywords {
			if strings.Contains(lower, keyword) {
				return t.response
			}
		}
	}
	return defaultResponse
}
