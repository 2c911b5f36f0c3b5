package knowledge

// Corpus returns the seed content of the knowledge base. Each call returns a
// fresh slice.
func Corpus() []Item {
	return []Item{
		{
			Title:    "Social Media Marketing for Beauty Businesses",
			Content:  "Effective social media marketing for beauty businesses involves showcasing before/after transformations, sharing educational content about treatments, leveraging user-generated content, and maintaining consistent posting schedules. Instagram and TikTok are particularly powerful for visual content. Use hashtags strategically, collaborate with beauty influencers, and engage authentically with your community. Video content performs exceptionally well, especially tutorials and treatment demonstrations.",
			Category: "social_media",
		},
		{
			Title:    "Med Spa Marketing Strategies",
			Content:  "Med spa marketing requires building trust through educational content, showcasing certifications and expertise, and highlighting safety protocols. Focus on aesthetic treatments like Botox, dermal fillers, laser treatments, and skin rejuvenation. Use before/after photos (with consent), patient testimonials, and expert content. Local SEO is crucial for attracting nearby clients. Partner with dermatologists and plastic surgeons for referrals.",
			Category: "medspa",
		},
		{
			Title:    "Beauty Salon Client Retention",
			Content:  "Client retention in beauty salons depends on exceptional service, personalized experiences, and consistent follow-up. Implement loyalty programs, send appointment reminders, offer package deals, and maintain detailed client profiles with preferences and treatment history. Regular check-ins via email or text, special birthday offers, and referral incentives help maintain long-term relationships.",
			Category: "salon",
		},
		{
			Title:    "Digital Marketing for Skincare Brands",
			Content:  "Skincare brand marketing should focus on ingredient education, skin concern solutions, and building trust through expertise. Create content around skin types, common concerns, and treatment routines. User reviews and testimonials are crucial. Use SEO-optimized blog content, email marketing for skincare tips, and targeted social media advertising. Partner with dermatologists and estheticians for credibility.",
			Category: "skincare",
		},
		{
			Title:    "Beauty Business SEO Optimization",
			Content:  "Beauty business SEO requires local optimization with Google My Business, location-based keywords, and service-specific pages. Create content around 'beauty services near me', treatment-specific terms, and local area keywords. Ensure website is mobile-friendly, loads quickly, and includes client testimonials. Regular blog posts about beauty trends, treatments, and tips improve search rankings.",
			Category: "seo",
		},
		{
			Title:    "Email Marketing for Beauty Services",
			Content:  "Beauty service email marketing should focus on appointment reminders, treatment follow-ups, seasonal promotions, and educational content. Segment lists by service type (skincare, hair, nails, etc.), send personalized treatment recommendations, and include beauty tips and trends. Automated sequences for new clients, post-treatment care, and re-engagement campaigns are highly effective.",
			Category: "email",
		},
		{
			Title:    "Beauty Industry Trends and Innovations",
			Content:  "Current beauty trends include clean beauty, personalized skincare, minimally invasive treatments, and tech-driven solutions. Sustainability is increasingly important, with eco-friendly packaging and natural ingredients in demand. AI-powered skin analysis, virtual consultations, and AR try-on experiences are transforming customer interactions. Stay current with innovations like microneedling, LED therapy, and advanced facial treatments.",
			Category: "trends",
		},
		{
			Title:    "Content Marketing for Beauty Professionals",
			Content:  "Beauty content marketing should educate and inspire while showcasing expertise. Create how-to tutorials, treatment explanations, ingredient spotlights, and seasonal beauty guides. User-generated content and client transformations build social proof. Collaborate with other beauty professionals, participate in industry events, and share behind-the-scenes content to humanize your brand and build connections.",
			Category: "content",
		},
		{
			Title:    "Pharens AI Services Overview",
			Content:  "Pharens AI specializes in comprehensive digital marketing solutions for beauty businesses. Our services include social media management, SEO optimization, content creation, email marketing campaigns, website development, and brand strategy. We understand the unique challenges of beauty marketing and create tailored strategies that drive client acquisition, improve retention, and build strong brand presence across all digital channels.",
			Category: "services",
		},
		{
			Title:    "Beauty Business Analytics and ROI",
			Content:  "Measuring beauty business marketing success requires tracking key metrics like client acquisition cost, lifetime value, appointment booking rates, and social media engagement. Use tools like Google Analytics, social media insights, and CRM data to understand client behavior. Track conversion rates from different marketing channels, monitor online reviews and reputation, and measure return on marketing investment to optimize campaigns.",
			Category: "analytics",
		},
		{
			Title:    "Pharens AI Contact Information",
			Content:  "To get in touch with Pharens AI Agency, you can reach us through multiple channels. Call us on our mobile numbers: +27 67 037 4461 or +27 60 278 5621. You can also email us at cbd.pharen25@gmail.com. We're available to discuss your beauty marketing needs, provide consultations, and answer any questions about our services. Whether you need help with social media marketing, SEO, content creation, or comprehensive digital marketing strategies for your beauty business, we're here to help you grow.",
			Category: "contact",
		},
	}
}
