package knowledge

// Default returns the compiled-in pack for the school clinic.
func Default() *Pack {
	return &Pack{
		Clinic: ClinicInfo{
			WeekdayHours:  "8:00 AM - 5:00 PM",
			SaturdayHours: "9:00 AM - 1:00 PM",
			SundayHours:   "Closed",
			Location:      "Main Building, 2nd Floor",
			Phone:         "(123) 456-7890",
			Email:         "clinic@school.edu",
		},

		// Priority order: Cebuano markers are rarer and decisive on a single
		// hit; Tagalog function words are common enough to need two hits.
		Languages: []LanguageProfile{
			{
				Tag:       "ceb",
				Markers:   []string{"unsa", "asa man", "kanus-a", "maayong", "naa ba", "tambal", "ngipon", "pila ang", "kumusta man ka"},
				Threshold: 1,
			},
			{
				Tag:       "tl",
				Markers:   []string{"kumusta", "kelan", "kailan", "ano ", "saan", " po", " ang ", " ng ", "gamot", "sakit", "magkano", "pwede", "meron"},
				Threshold: 2,
			},
		},
		DefaultLanguage: "en",

		Replies: map[Category]map[string]string{
			CategoryGreeting: {
				"en":  "Hello! I'm the school clinic assistant. Ask me about clinic hours, the doctor or dentist schedule, medicines, certificates, or referrals.",
				"tl":  "Kumusta! Ako ang assistant ng school clinic. Magtanong lang tungkol sa oras ng clinic, schedule ng doktor o dentista, gamot, certificate, o referral.",
				"ceb": "Maayong adlaw! Ako ang assistant sa school clinic. Pangutana lang bahin sa oras sa clinic, schedule sa doktor o dentista, tambal, certificate, o referral.",
			},
			CategoryLocation: {
				"en":  "The clinic is at the Main Building, 2nd Floor. Phone: (123) 456-7890.",
				"tl":  "Ang clinic ay nasa Main Building, 2nd Floor. Telepono: (123) 456-7890.",
				"ceb": "Ang clinic naa sa Main Building, 2nd Floor. Telepono: (123) 456-7890.",
			},
			CategoryHours: {
				"en":  "Clinic hours: Monday-Friday 8:00 AM - 5:00 PM, Saturday 9:00 AM - 1:00 PM, closed Sunday.",
				"tl":  "Oras ng clinic: Lunes-Biyernes 8:00 AM - 5:00 PM, Sabado 9:00 AM - 1:00 PM, sarado tuwing Linggo.",
				"ceb": "Oras sa clinic: Lunes-Biyernes 8:00 AM - 5:00 PM, Sabado 9:00 AM - 1:00 PM, sirado inig Dominggo.",
			},
			CategoryDoctor: {
				"en":  "The school physician is in Monday, Wednesday and Friday, 9:00 AM - 3:00 PM. Walk-ins are accepted; bring your student ID.",
				"tl":  "Ang doktor ay nasa clinic tuwing Lunes, Miyerkules at Biyernes, 9:00 AM - 3:00 PM. Pwede ang walk-in; dalhin ang student ID.",
				"ceb": "Ang doktor naa sa clinic inig Lunes, Miyerkules ug Biyernes, 9:00 AM - 3:00 PM. Pwede ang walk-in; dad-a ang student ID.",
			},
			CategoryDentist: {
				"en":  "The dentist is in Tuesday and Thursday, 9:00 AM - 12:00 PM. Tooth extraction and check-ups are free for students; slots are first come, first served.",
				"tl":  "Ang dentista ay nasa clinic tuwing Martes at Huwebes, 9:00 AM - 12:00 PM. Libre ang bunot at check-up para sa mga estudyante; first come, first served ang slots.",
				"ceb": "Ang dentista naa sa clinic inig Martes ug Huwebes, 9:00 AM - 12:00 PM. Libre ang pang-ibot ug check-up para sa mga estudyante; first come, first served ang slots.",
			},
			CategoryMedicines: {
				"en":  "The clinic gives out basic medicines for free: paracetamol, antacids, oral rehydration salts and first-aid supplies. Visit during clinic hours with your student ID.",
				"tl":  "May libreng basic na gamot ang clinic: paracetamol, antacid, oresol at first-aid supplies. Pumunta sa clinic dala ang student ID.",
				"ceb": "Adunay libre nga batakang tambal ang clinic: paracetamol, antacid, oresol ug first-aid supplies. Adto sa clinic dala ang student ID.",
			},
			CategoryExtraction: {
				"en":  "Tooth extraction is done by the dentist on Tuesday and Thursday mornings. It is free for students, but you need a parent consent form if you are a minor.",
				"tl":  "Ang bunot ng ngipin ay ginagawa ng dentista tuwing Martes at Huwebes ng umaga. Libre ito para sa mga estudyante, pero kailangan ng parent consent form kung menor de edad.",
				"ceb": "Ang pag-ibot sa ngipon himuon sa dentista inig Martes ug Huwebes sa buntag. Libre kini para sa mga estudyante, pero kinahanglan og parent consent form kung menor de edad.",
			},
			CategoryCertificate: {
				"en":  "Medical certificates are issued by the school physician after a check-up, Monday, Wednesday or Friday. Bring your student ID; processing takes about 15 minutes.",
				"tl":  "Ang medical certificate ay ibinibigay ng doktor pagkatapos ng check-up, tuwing Lunes, Miyerkules o Biyernes. Dalhin ang student ID; mga 15 minuto ang proseso.",
				"ceb": "Ang medical certificate ihatag sa doktor human sa check-up, inig Lunes, Miyerkules o Biyernes. Dad-a ang student ID; mga 15 minutos ang proseso.",
			},
			CategoryEmergency: {
				"en":  "EMERGENCY: call campus security or 911, or go straight to the clinic. The clinic emergency line is (123) 456-7890. For life-threatening situations call emergency services immediately.",
				"tl":  "EMERGENCY: tawagan ang campus security o 911, o dumiretso sa clinic. Ang emergency line ng clinic ay (123) 456-7890. Kung banta sa buhay, tumawag agad sa emergency services.",
				"ceb": "EMERGENCY: tawagi ang campus security o 911, o diretso sa clinic. Ang emergency line sa clinic kay (123) 456-7890. Kung delikado sa kinabuhi, tawag dayon sa emergency services.",
			},
			CategoryReferral: {
				"en":  "For cases the clinic cannot handle, the physician issues a referral to a partner hospital. Get checked first during doctor hours so the referral slip can be prepared.",
				"tl":  "Para sa mga kasong hindi kaya ng clinic, nagbibigay ang doktor ng referral sa partner hospital. Magpa-check up muna sa oras ng doktor para maihanda ang referral slip.",
				"ceb": "Para sa mga kaso nga dili kaya sa clinic, maghatag ang doktor og referral sa partner hospital. Pa-check up una sa oras sa doktor aron maandam ang referral slip.",
			},
			CategoryServices: {
				"en":  "Clinic services: general consultation, dental check-up and extraction, free basic medicines, medical certificates, hospital referrals and first aid.",
				"tl":  "Mga serbisyo ng clinic: konsultasyon, dental check-up at bunot, libreng gamot, medical certificate, referral sa ospital at first aid.",
				"ceb": "Mga serbisyo sa clinic: konsultasyon, dental check-up ug pag-ibot, libreng tambal, medical certificate, referral sa ospital ug first aid.",
			},
			CategoryDefault: {
				"en":  "I'm not sure about that one. You can ask about clinic hours, the doctor or dentist, medicines, certificates or referrals - or type \"admin\" to talk to our staff.",
				"tl":  "Hindi ko sigurado iyan. Pwede kang magtanong tungkol sa oras ng clinic, doktor o dentista, gamot, certificate o referral - o i-type ang \"admin\" para makausap ang staff.",
				"ceb": "Dili ko sigurado ana. Pwede ka mangutana bahin sa oras sa clinic, doktor o dentista, tambal, certificate o referral - o i-type ang \"admin\" aron makaistorya sa staff.",
			},
			ReplyWelcome: {
				"en":  "Welcome to the school clinic! I can help with clinic hours, appointments, common health concerns and emergencies. How can I help you today?",
				"tl":  "Maligayang pagdating sa school clinic! Makakatulong ako sa oras ng clinic, appointment, mga karaniwang karamdaman at emergency. Paano kita matutulungan?",
				"ceb": "Maayong pag-abot sa school clinic! Makatabang ko sa oras sa clinic, appointment, mga kasagarang sakit ug emergency. Unsaon tika pagtabang?",
			},
			ReplyMenuPrompt: {
				"en":  "How can I help you today?",
				"tl":  "Paano kita matutulungan?",
				"ceb": "Unsaon tika pagtabang?",
			},
			ReplyConcernMenu: {
				"en":  "What health concern do you have?",
				"tl":  "Ano ang iyong karamdaman?",
				"ceb": "Unsa imong gibati?",
			},
			ReplyHandoffAck: {
				"en":  "Got it - I've notified our clinic staff. A real person will reply here shortly.",
				"tl":  "Sige - na-inform ko na ang clinic staff. May totoong tao na sasagot dito sandali lang.",
				"ceb": "Sige - gipahibalo na nako ang clinic staff. Adunay tinuod nga tawo nga motubag diri karon dayon.",
			},
			ReplyReactivated: {
				"en":  "The automated assistant is active again. Feel free to ask me anything about the clinic.",
				"tl":  "Aktibo na ulit ang automated assistant. Magtanong lang ulit tungkol sa clinic.",
				"ceb": "Aktibo na usab ang automated assistant. Pangutana lang usab bahin sa clinic.",
			},
			ReplyApology: {
				"en":  "Sorry, I couldn't process that right now. Please try again in a moment.",
				"tl":  "Pasensya na, hindi ko ma-proseso iyan ngayon. Subukan ulit mamaya.",
				"ceb": "Pasayloa, dili nako ma-proseso karon. Sulayi usab unya.",
			},
			ReplyGoodbye: {
				"en":  "You're welcome! Take care and visit the clinic if you need anything.",
				"tl":  "Walang anuman! Ingat ka at dumaan sa clinic kung may kailangan ka.",
				"ceb": "Walay sapayan! Pag-amping ug hapit sa clinic kung naa kay kinahanglan.",
			},
			ReplyAdviceFooter: {
				"en":  "This is general advice only. For proper diagnosis and treatment, please visit the clinic during operating hours.",
				"tl":  "Pangkalahatang payo lamang ito. Para sa tamang diagnosis at gamutan, pumunta sa clinic sa oras ng operasyon.",
				"ceb": "Kinatibuk-ang tambag lamang kini. Para sa hustong diagnosis ug tambal, adto sa clinic sa oras sa operasyon.",
			},
		},

		Advice: map[string]map[string]string{
			"fever": {
				"en": "For fever: rest, drink plenty of fluids, and take paracetamol if needed. If it lasts more than 3 days or goes over 38.5C, visit the clinic.",
				"tl": "Para sa lagnat: magpahinga, uminom ng maraming tubig, at uminom ng paracetamol kung kailangan. Kapag lampas 3 araw o lampas 38.5C, pumunta sa clinic.",
			},
			"headache": {
				"en": "For headaches: rest in a quiet, dark room and stay hydrated. If severe or persistent, visit the clinic.",
				"tl": "Para sa sakit ng ulo: magpahinga sa tahimik at madilim na kwarto at uminom ng tubig. Kapag matindi o tuloy-tuloy, pumunta sa clinic.",
			},
			"cold": {
				"en": "For colds: rest, drink warm fluids, and sleep well. Visit the clinic if symptoms worsen or last beyond a week.",
				"tl": "Para sa sipon: magpahinga, uminom ng maligamgam na inumin, at matulog nang maayos. Pumunta sa clinic kapag lumala o lampas isang linggo.",
			},
			"stomach": {
				"en": "For stomach issues: stay hydrated with clear fluids and avoid heavy meals. If pain or vomiting persists, come to the clinic immediately.",
				"tl": "Para sa sakit ng tiyan: uminom ng malinaw na inumin at iwasan ang mabibigat na pagkain. Kapag tuloy-tuloy ang sakit o pagsusuka, pumunta agad sa clinic.",
			},
			"injury": {
				"en": "For injuries: apply first aid if minor. For serious injuries, come to the clinic immediately or call emergency services.",
				"tl": "Para sa sugat o injury: mag-first aid kung maliit lang. Kapag malala, pumunta agad sa clinic o tumawag sa emergency services.",
			},
		},

		CategoryKeywords: map[Category][]string{
			CategoryGreeting:    {"hello", "hi ", "hey", "start", "kumusta", "musta", "maayong", "good morning", "good afternoon"},
			CategoryLocation:    {"location", "where", "saan", "asa", "address", "nasaan"},
			CategoryHours:       {"hours", "open", "oras", "schedule", "sched", "time", "kelan", "kailan", "kanus-a", "available"},
			CategoryDoctor:      {"doctor", "doktor", "physician", "duktor"},
			CategoryDentist:     {"dentist", "dentista", "dental", "ngipon", "ngipin", "tooth", "teeth"},
			CategoryMedicines:   {"medicine", "medicines", "meds", "gamot", "tambal", "paracetamol"},
			CategoryExtraction:  {"extraction", "extract", "bunot", "ibot"},
			CategoryCertificate: {"certificate", "cert", "medcert", "sertipiko"},
			CategoryEmergency:   {"emergency", "urgent", "911"},
			CategoryReferral:    {"referral", "refer", "hospital", "ospital"},
			CategoryServices:    {"services", "service", "serbisyo", "offer"},
		},

		ConcernKeywords: map[string][]string{
			"fever":    {"fever", "lagnat", "hilanat"},
			"headache": {"headache", "sakit ng ulo", "labad sa ulo"},
			"cold":     {"cold", "flu", "sipon", "ubo"},
			"stomach":  {"stomach", "tiyan", "kabuhi"},
			"injury":   {"injury", "injured", "sugat", "wound", "samad"},
		},

		AdminKeywords: []string{
			"admin", "talk to admin", "staff", "nurse", "human", "operator",
			"makipag-usap", "kausap", "tao naman", "istorya og tawo",
		},
		FarewellKeywords: []string{
			"bye", "goodbye", "thank you", "thanks", "salamat", "sige na", "ingat",
		},

		Menu: []MenuItem{
			{Payload: "CLINIC_HOURS", Titles: map[string]string{"en": "Clinic Hours", "tl": "Oras ng Clinic", "ceb": "Oras sa Clinic"}},
			{Payload: "APPOINTMENT", Titles: map[string]string{"en": "Appointment", "tl": "Appointment", "ceb": "Appointment"}},
			{Payload: "HEALTH_CONCERN", Titles: map[string]string{"en": "Health Concern", "tl": "Karamdaman", "ceb": "Gibati"}},
			{Payload: "EMERGENCY", Titles: map[string]string{"en": "Emergency", "tl": "Emergency", "ceb": "Emergency"}},
		},
	}
}
