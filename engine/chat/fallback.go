package chat

import "strings"

type fallbackRule struct {
	name     string
	keywords []string
	reply    string
}

// Order matters: a message can match several rules and the first one wins.
var fallbackRules = []fallbackRule{
	{
		name:     "social_media",
		keywords: []string{"social media", "instagram", "tiktok"},
		reply: "I'd love to help with your social media strategy! For beauty businesses, I recommend focusing on " +
			"visual content like before/after transformations, tutorial videos, and behind-the-scenes content. " +
			"Instagram and TikTok are particularly effective for beauty brands. Would you like specific tips for " +
			"your type of beauty business?",
	},
	{
		name:     "medspa",
		keywords: []string{"medspa", "med spa", "botox", "filler"},
		reply: "Med spa marketing requires building trust and showcasing expertise. I recommend creating educational " +
			"content about treatments, sharing patient testimonials (with consent), and highlighting your " +
			"certifications. Local SEO is also crucial for attracting nearby clients. What specific med spa services " +
			"do you offer?",
	},
	{
		name:     "growth",
		keywords: []string{"grow", "business", "marketing"},
		reply: "I can help you grow your beauty business through strategic digital marketing! This includes social " +
			"media management, SEO optimization, content creation, and email marketing. At Pharens AI, we specialize " +
			"in beauty industry marketing that drives real results. What's your biggest marketing challenge right now?",
	},
	{
		name:     "seo",
		keywords: []string{"seo", "search", "google"},
		reply: "SEO is crucial for beauty businesses! Focus on local optimization with Google My Business, create " +
			"service-specific pages, and use location-based keywords like 'beauty services near me'. Regular blog " +
			"content about beauty tips and treatments also helps improve rankings. What type of beauty services do " +
			"you offer?",
	},
	{
		name:     "services",
		keywords: []string{"pharens", "service"},
		reply: "Pharens AI specializes in comprehensive digital marketing for beauty businesses. Our services include " +
			"social media management, SEO optimization, content creation, email marketing, website development, and " +
			"brand strategy. We understand the unique challenges of beauty marketing and create tailored strategies " +
			"that work. How can we help grow your beauty business?",
	},
	{
		name:     "contact",
		keywords: []string{"contact", "phone", "email", "reach", "get in touch", "call"},
		reply: "You can reach Pharens AI through multiple channels: Call us on +27 67 037 4461 or +27 60 278 5621, " +
			"or email us at cbd.pharen25@gmail.com. We're available to discuss your beauty marketing needs and " +
			"provide consultations. How can we help grow your beauty business?",
	},
}

const defaultFallback = "Hi! I'm your Pharens AI Assistant, specializing in beauty industry marketing. I can help " +
	"with social media strategies, SEO optimization, content marketing, email campaigns, and growing your beauty " +
	"business. I'm powered by your local qwen2:8b model for fast, private responses! What specific area would you " +
	"like help with?"

// Fallback picks a canned reply by keyword. It never fails and does no I/O.
func Fallback(message string) string {
	reply, _ := classify(message)
	return reply
}

func classify(message string) (reply, category string) {
	lower := strings.ToLower(message)
	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.reply, rule.name
			}
		}
	}
	return defaultFallback, "default"
}
