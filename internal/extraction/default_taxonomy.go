package extraction

func leaves(names ...string) []Node {
	out := make([]Node, len(names))
	for i, n := range names {
		out[i] = Node{Name: n}
	}
	return out
}

// DefaultTaxonomy returns the built-in category tree. The fallback leaf
// Miscellaneous/Other/Unknown Items is always present.
func DefaultTaxonomy() *Taxonomy { return NewTaxonomy(defaultTree) }

var defaultTree = []Node{
	{Name: "Electronics", Children: []Node{
		{Name: "Mobile Phones", Children: leaves("Android Phones", "iPhones", "Feature Phones", "Smartphones")},
		{Name: "Laptops", Children: leaves("Windows Laptops", "MacBooks", "Chromebooks", "Gaming Laptops")},
		{Name: "Tablets", Children: leaves("Android Tablets", "iPads", "Windows Tablets")},
		{Name: "Cameras", Children: leaves("Digital Cameras", "DSLRs", "Mirrorless Cameras", "Action Cameras")},
		{Name: "Accessories", Children: leaves("Chargers", "Headphones", "Cases", "Screen Protectors", "Cables", "Batteries")},
		{Name: "Wearable Technology", Children: leaves("Smartwatches", "Fitness Trackers", "VR Headsets")},
		{Name: "Audio Equipment", Children: leaves("Speakers", "Earbuds", "Microphones", "Sound Systems")},
		{Name: "Gaming Consoles", Children: leaves("PlayStation", "Xbox", "Nintendo Switch", "PC Gaming")},
		{Name: "Home Appliances", Children: leaves("Refrigerators", "Microwaves", "Blenders", "Toasters", "Coffee Makers")},
		{Name: "Computers", Children: leaves("Desktops", "Monitors", "Printers", "Keyboards", "Mice")},
		{Name: "Networking Devices", Children: leaves("Routers", "Modems", "Switches", "Network Cables")},
	}},
	{Name: "Personal Items", Children: []Node{
		{Name: "Wallets", Children: leaves("Leather Wallets", "Card Holders", "Bifold Wallets", "Trifold Wallets")},
		{Name: "Keys", Children: leaves("House Keys", "Car Keys", "Office Keys", "Keychains")},
		{Name: "Bags", Children: leaves("Backpacks", "Handbags", "Luggage", "Duffel Bags", "Messenger Bags")},
		{Name: "Jewelry", Children: leaves("Rings", "Necklaces", "Bracelets", "Earrings", "Watches")},
		{Name: "Clothing", Children: leaves("Shirts", "Pants", "Dresses", "Jackets", "Shoes", "Hats", "Sweaters", "Coats", "Shorts", "Socks", "Underwear")},
		{Name: "Accessories", Children: leaves("Belts", "Scarves", "Gloves", "Sunglasses", "Hats")},
		{Name: "Health and Personal Care", Children: leaves("Medicines", "Toiletries", "Medical Devices", "Personal Hygiene Items")},
		{Name: "Toys and Games", Children: leaves("Action Figures", "Board Games", "Puzzles", "Dolls", "Video Games")},
		{Name: "Musical Instruments", Children: leaves("Guitars", "Keyboards", "Drums", "Wind Instruments", "String Instruments")},
		{Name: "Sporting Goods", Children: leaves("Bicycles", "Sports Balls", "Protective Gear", "Fitness Equipment")},
		{Name: "Tools", Children: leaves("Hand Tools", "Power Tools", "Garden Tools", "Measuring Tools")},
		{Name: "Baby Items", Children: leaves("Diapers", "Baby Clothes", "Toys", "Strollers", "Bottles")},
		{Name: "Pet Accessories", Children: leaves("Collars", "Leashes", "Toys", "Bedding", "Feeding Bowls")},
		{Name: "Art and Crafts", Children: leaves("Paintings", "Sculptures", "Craft Supplies", "Drawing Materials")},
		{Name: "Books and Media", Children: leaves("Books", "DVDs", "CDs", "Magazines", "eBooks")},
		{Name: "Miscellaneous", Children: leaves("Umbrellas", "Perfumes", "Sunglasses", "Glasses", "Notebooks")},
	}},
	{Name: "Documents", Children: []Node{
		{Name: "Identification", Children: leaves("ID Cards", "Passports", "Licenses", "Driver's Licenses")},
		{Name: "Academic", Children: leaves("Books", "Notes", "Certificates", "Diplomas", "Transcripts")},
		{Name: "Financial", Children: leaves("Bank Statements", "Credit Cards", "Checkbooks", "Receipts")},
		{Name: "Legal", Children: leaves("Contracts", "Wills", "Deeds", "Court Documents")},
	}},
	{Name: "Vehicles", Children: []Node{
		{Name: "Bicycles", Children: leaves("Mountain Bikes", "Road Bikes", "Electric Bikes", "Kids' Bikes")},
		{Name: "Motorcycles", Children: leaves("Sport Bikes", "Cruisers", "Scooters", "Electric Motorcycles")},
		{Name: "Scooters", Children: leaves("Electric Scooters", "Kick Scooters", "Motorized Scooters")},
		{Name: "Car Accessories", Children: leaves("Car Chargers", "Seat Covers", "Floor Mats", "GPS Devices")},
	}},
	{Name: "Office Supplies", Children: []Node{
		{Name: "Stationery", Children: leaves("Pens", "Notebooks", "Markers", "Staplers", "Paper Clips")},
		{Name: "Office Equipment", Children: leaves("Printers", "Scanners", "Desks", "Chairs", "Lamps")},
		{Name: "Electronics", Children: leaves("Calculators", "External Hard Drives", "USB Drives", "Headsets")},
	}},
	{Name: "Home Appliances", Children: []Node{
		{Name: "Kitchen Appliances", Children: leaves("Refrigerators", "Microwaves", "Blenders", "Toasters", "Coffee Makers")},
		{Name: "Laundry Appliances", Children: leaves("Washing Machines", "Dryers", "Ironing Boards", "Irons")},
		{Name: "Cleaning Appliances", Children: leaves("Vacuum Cleaners", "Steam Mops", "Air Purifiers", "Dishwashers")},
		{Name: "Heating and Cooling", Children: leaves("Fans", "Heaters", "Air Conditioners", "Humidifiers")},
	}},
	{Name: "Gaming", Children: []Node{
		{Name: "Consoles", Children: leaves("PlayStation", "Xbox", "Nintendo Switch", "PC Gaming")},
		{Name: "Accessories", Children: leaves("Controllers", "Headsets", "Charging Stations", "Game Carts")},
		{Name: "Games", Children: leaves("Video Games", "Board Games", "Card Games", "Puzzle Games")},
	}},
	{Name: "Art Supplies", Children: []Node{
		{Name: "Drawing", Children: leaves("Pencils", "Charcoal", "Erasers", "Sharpeners")},
		{Name: "Painting", Children: leaves("Brushes", "Paints", "Canvases", "Palettes")},
		{Name: "Crafting", Children: leaves("Glue Guns", "Scissors", "Ribbons", "Stickers")},
		{Name: "Sculpting", Children: leaves("Clay", "Tools", "Molds", "Wire")},
	}},
	{Name: "Personal Electronics", Children: []Node{
		{Name: "Wearables", Children: leaves("Smartwatches", "Fitness Trackers", "VR Headsets")},
		{Name: "Portable Devices", Children: leaves("E-Readers", "Portable Speakers", "Power Banks")},
		{Name: "Photography", Children: leaves("Digital Cameras", "GoPros", "Camera Lenses", "Tripods")},
	}},
	{Name: "Miscellaneous", Children: []Node{
		{Name: "Umbrellas", Children: leaves("Standard Umbrellas", "Compact Umbrellas", "Golf Umbrellas")},
		{Name: "Sunglasses", Children: leaves("Polarized Sunglasses", "Fashion Sunglasses", "Sport Sunglasses")},
		{Name: "Glasses", Children: leaves("Eyeglasses", "Reading Glasses", "Contact Lenses")},
		{Name: "Notebooks", Children: leaves("Spiral Notebooks", "Hardcover Notebooks", "Digital Notebooks")},
		{Name: "Batteries", Children: leaves("AA Batteries", "AAA Batteries", "Rechargeable Batteries", "Car Batteries")},
		{Name: "Other", Children: leaves("Unknown Items")},
	}},
}
