package handlers

const helpText = "## 🎶 Poor Jimmy - Discord Music Bot 🎶\n\n" +
	"**Getting Started**\n" +
	"First, join a voice channel, then use `/join` to bring Poor Jimmy into your channel.\n\n" +
	"**Playing Music**\n" +
	"• `/play-title <title>` - Search and play a song by title\n" +
	"• `/play-url <url>` - Play a specific YouTube video, share link or Spotify track\n" +
	"• `/playlist <url>` - Queue a YouTube playlist or a Spotify album, playlist or artist\n" +
	"• `/search <query>` - Search YouTube and select from results\n\n" +
	"**Playback Controls**\n" +
	"• `/pause` - Pause the current song\n" +
	"• `/resume` - Resume playback\n" +
	"• `/skip` - Skip to the next song in queue\n" +
	"• `/loop` - Toggle looping for the current song\n" +
	"• `/now-playing` - Show current song with progress bar\n\n" +
	"**Queue Management**\n" +
	"• `/list` - View all songs in the queue\n" +
	"• `/clear` - Stop playback and clear the entire queue\n\n" +
	"**Other Commands**\n" +
	"• `/join` - Summon Poor Jimmy to your voice channel\n" +
	"• `/leave` - Remove Poor Jimmy from the voice channel\n" +
	"• `/config` - Show or change this server's settings\n" +
	"• `/ping` - Check if the bot is responsive\n" +
	"• `/damnit-jimmy` - Update Jimmy's dependencies (use if experiencing playback issues)\n" +
	"• `/help` - Display this help message\n\n" +
	"**Tips**\n" +
	"- Use the interactive buttons that appear with songs for quick controls\n" +
	"- Queue up multiple songs - they'll play automatically\n" +
	"- Poor Jimmy must be in a voice channel to play music"
